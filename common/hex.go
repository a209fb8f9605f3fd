package common

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// HasZeroPrefix reports whether the first n hex characters of hash are all '0'.
func HasZeroPrefix(hash common.Hash, n uint64) bool {
	if n > 2*common.HashLength {
		return false
	}
	for i := uint64(0); i < n; i++ {
		b := hash[i/2]
		if i%2 == 0 {
			b >>= 4
		}
		if b&0x0f != 0 {
			return false
		}
	}
	return true
}

// TrimHexPrefix drops a leading 0x if present.
func TrimHexPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}

// ShortHash renders a hash as 0x1234abcd...ef01.
func ShortHash(hex string) string {
	raw := TrimHexPrefix(hex)
	if len(raw) <= 12 {
		return "0x" + raw
	}
	return "0x" + raw[:8] + "..." + raw[len(raw)-4:]
}
