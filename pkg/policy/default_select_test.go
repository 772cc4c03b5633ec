package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

const (
	scenarioBlocksPerSegment = 100
	scenarioCapacity         = 4
	scenarioNow              = 1_000_000
	scenarioProttime         = 999_000
)

func TestDefaultSelect_GreedyUtilizationFilter(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 3}
	infos := map[segment.Number]segment.UsageInfo{
		0: {Segnum: 0, LastMod: 500_000, Reclaimable: true},
		1: {Segnum: 1, LastMod: 500_000, Reclaimable: true},
		2: {Segnum: 2, LastMod: 500_000, Reclaimable: true},
	}
	live := map[segment.Number]uint32{0: 10, 1: 20, 2: 70}
	env := newEnv(infos, live)

	res, err := Select(context.Background(), NewGreedy(), env, fs, scenarioNow, scenarioProttime, scenarioCapacity)
	require.NoError(t, err)

	assert.Equal(t, []segment.Number{0, 1}, res.Segnums)
}

func TestDefaultSelect_CostBenefitOrdering(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 2}
	infos := map[segment.Number]segment.UsageInfo{
		0: {Segnum: 0, LastMod: scenarioNow - 100, Reclaimable: true},
		1: {Segnum: 1, LastMod: scenarioNow - 1000, Reclaimable: true},
	}
	live := map[segment.Number]uint32{0: 50, 1: 50}
	env := newEnv(infos, live)

	// Both lastmods (now-100, now-1000) lie inside [scenarioProttime, now], so
	// this scenario uses a prottime later than either to keep them eligible.
	res, err := Select(context.Background(), NewCostBenefit(), env, fs, scenarioNow, scenarioNow-50, scenarioCapacity)
	require.NoError(t, err)

	require.Len(t, res.Segnums, 2)
	assert.Equal(t, segment.Number(1), res.Segnums[0], "older segment (bigger age) must sort first")
	assert.Equal(t, segment.Number(0), res.Segnums[1])
}

func TestDefaultSelect_TimestampProtection(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NongcCtime: scenarioNow + 1, NumSegments: 1}
	infos := map[segment.Number]segment.UsageInfo{
		0: {Segnum: 0, LastMod: 999_500, Reclaimable: true},
	}
	live := map[segment.Number]uint32{0: 10}
	env := newEnv(infos, live)

	res, err := Select(context.Background(), NewTimestamp(), env, fs, scenarioNow, scenarioProttime, scenarioCapacity)
	require.NoError(t, err)

	assert.Empty(t, res.Segnums, "segment modified inside [prottime, now] must be excluded regardless of policy")
}

func TestDefaultSelect_DeterminismTieBreak(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 8}
	infos := map[segment.Number]segment.UsageInfo{
		3: {Segnum: 3, LastMod: 500_000, Reclaimable: true},
		7: {Segnum: 7, LastMod: 500_000, Reclaimable: true},
	}
	live := map[segment.Number]uint32{3: 50, 7: 50}
	env := newEnv(infos, live)

	res, err := Select(context.Background(), NewCostBenefit(), env, fs, scenarioNow, scenarioProttime, scenarioCapacity)
	require.NoError(t, err)

	assert.Equal(t, []segment.Number{3, 7}, res.Segnums, "equal-score candidates must tie-break ascending by segnum")
}

func TestDefaultSelect_EmptyInput(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 0}
	env := newEnv(nil, nil)

	res, err := Select(context.Background(), NewTimestamp(), env, fs, scenarioNow, scenarioProttime, scenarioCapacity)
	require.NoError(t, err)
	assert.Empty(t, res.Segnums)
	assert.Nil(t, res.Oldest)
}

func TestDefaultSelect_CapacityTruncates(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 6}
	infos := make(map[segment.Number]segment.UsageInfo)
	live := make(map[segment.Number]uint32)
	for i := segment.Number(0); i < 6; i++ {
		infos[i] = segment.UsageInfo{Segnum: i, LastMod: 500_000, Reclaimable: true}
		live[i] = 10
	}
	env := newEnv(infos, live)

	res, err := Select(context.Background(), NewGreedy(), env, fs, scenarioNow, scenarioProttime, scenarioCapacity)
	require.NoError(t, err)
	assert.Len(t, res.Segnums, scenarioCapacity)
}

func TestDefaultSelect_OrderingRespectsCompare(t *testing.T) {
	fs := segment.FilesystemSummary{BlocksPerSegment: scenarioBlocksPerSegment, NumSegments: 4}
	infos := map[segment.Number]segment.UsageInfo{
		0: {Segnum: 0, LastMod: 500_000, Reclaimable: true},
		1: {Segnum: 1, LastMod: 500_000, Reclaimable: true},
		2: {Segnum: 2, LastMod: 500_000, Reclaimable: true},
		3: {Segnum: 3, LastMod: 500_000, Reclaimable: true},
	}
	live := map[segment.Number]uint32{0: 5, 1: 80, 2: 40, 3: 10}
	env := newEnv(infos, live)
	p := NewGreedy()

	res, err := Select(context.Background(), p, env, fs, scenarioNow, scenarioProttime, 10)
	require.NoError(t, err)

	for i := 0; i+1 < len(res.Segnums); i++ {
		ci := Candidate{Segnum: res.Segnums[i], Score: float64(scenarioBlocksPerSegment) - float64(live[res.Segnums[i]])}
		cj := Candidate{Segnum: res.Segnums[i+1], Score: float64(scenarioBlocksPerSegment) - float64(live[res.Segnums[i+1]])}
		assert.LessOrEqual(t, p.Compare(ci, cj), 0)
	}
}
