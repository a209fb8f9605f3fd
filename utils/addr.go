package utils

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// addressVersion prefixes base58 renderings of account addresses.
const addressVersion = 0x42

var ErrInvalidAddress = errors.New("invalid address")

// EncodeToBase58 renders a 0x-hex address in base58check.
func EncodeToBase58(addrInHex string) string {
	addressBytes, err := hexutil.Decode(addrInHex)
	if err != nil {
		return ""
	}
	return base58.CheckEncode(addressBytes, addressVersion)
}

// DecodeBase58 turns a base58check address back into its 0x-hex form.
func DecodeBase58(addr string) (string, error) {
	addressBytes, version, err := base58.CheckDecode(addr)
	if err != nil {
		return "", errors.Join(ErrInvalidAddress, err)
	}
	if version != addressVersion {
		return "", ErrInvalidAddress
	}
	return hexutil.Encode(addressBytes), nil
}

// NormalizeAddress accepts either form and returns the 0x-hex address.
func NormalizeAddress(addr string) (string, error) {
	if strings.HasPrefix(addr, "0x") {
		if _, err := hexutil.Decode(addr); err != nil {
			return "", errors.Join(ErrInvalidAddress, err)
		}
		return strings.ToLower(addr), nil
	}
	return DecodeBase58(addr)
}
