package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

func TestCostBenefit_Name(t *testing.T) {
	assert.Equal(t, "cost-benefit", NewCostBenefit().Name())
}

func TestCostBenefit_Score(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: 100, NumSegments: 1}
	infos := map[segment.Number]segment.UsageInfo{0: {Segnum: 0, LastMod: 1_000_000 - 1000, Reclaimable: true}}
	live := map[segment.Number]uint32{0: 50}
	env := newEnv(infos, live)

	p := NewCostBenefit()
	// Prottime is later than lastmod (999_000) so the segment is not time-protected.
	in := EvalInput{FS: fs, Info: infos[0], Segnum: 0, Now: 1_000_000, Prottime: 999_950}
	var cand Candidate
	eligible, err := p.Evaluate(context.Background(), env, in, &cand)
	require.NoError(t, err)
	require.True(t, eligible)
	assert.InDelta(t, 333.333, cand.Score, 0.5)
	assert.InDelta(t, 0.5, cand.Util, 1e-9)
}

func TestCostBenefit_ZeroBlocksPerSegmentIsSafe(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: 0, NumSegments: 1}
	infos := map[segment.Number]segment.UsageInfo{0: {Segnum: 0, LastMod: 100, Reclaimable: true}}
	live := map[segment.Number]uint32{0: 5}
	env := newEnv(infos, live)

	p := NewCostBenefit()
	in := EvalInput{FS: fs, Info: infos[0], Segnum: 0, Now: 1_000_000, Prottime: 999_000}
	var cand Candidate
	eligible, err := p.Evaluate(context.Background(), env, in, &cand)
	require.NoError(t, err)
	require.True(t, eligible)
	assert.False(t, cand.Score != cand.Score, "score must never be NaN even with a zero denominator")
}

func TestCostBenefit_CompareDescending(t *testing.T) {
	p := NewCostBenefit()
	older := Candidate{Segnum: 1, Score: 333.3}
	newer := Candidate{Segnum: 2, Score: 33.3}
	assert.Equal(t, -1, p.Compare(older, newer))
}
