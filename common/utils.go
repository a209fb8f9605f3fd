package common

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/holiman/uint256"
)

func FormatWithUnits(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2f T", n/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2f B", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2f M", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2f K", n/1e3)
	default:
		return fmt.Sprintf("%.2f", n)
	}
}

// FormatAmount renders an amount with thousands separators.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return humanize.BigComma(v.ToBig())
}
