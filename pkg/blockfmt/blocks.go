// Package blockfmt provides a human-readable wrapper around block counts,
// in the same style as a byte-count formatter, switching units as the
// count grows.
package blockfmt

import "fmt"

// Count is a uint32 wrapper representing a number of filesystem blocks.
type Count uint32

// Humanized returns a compact string with a "blk", "Kblk" or "Mblk" unit,
// switching units at 1,000 and 1,000,000 blocks.
func (c Count) Humanized() string {
	const unit = 1000
	v := float64(c)
	switch {
	case c >= 1_000_000:
		return fmt.Sprintf("%.2fMblk", v/1_000_000)
	case c >= unit:
		return fmt.Sprintf("%.2fKblk", v/unit)
	default:
		return fmt.Sprintf("%dblk", c)
	}
}

// Fraction returns c/total as a float in [0,1], or 0 when total is 0.
func (c Count) Fraction(total Count) float64 {
	if total == 0 {
		return 0
	}
	return float64(c) / float64(total)
}
