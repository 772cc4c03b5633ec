package blockfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_Humanized(t *testing.T) {
	assert.Equal(t, "500blk", Count(500).Humanized())
	assert.Equal(t, "1.50Kblk", Count(1500).Humanized())
	assert.Equal(t, "2.00Mblk", Count(2_000_000).Humanized())
}

func TestCount_Fraction(t *testing.T) {
	assert.InDelta(t, 0.3, Count(30).Fraction(100), 1e-9)
	assert.Equal(t, 0.0, Count(30).Fraction(0))
}
