package policy

import (
	"context"

	"github.com/nilfs-utils/segcleaner/internal/mathx"
)

// maxGreedyUtilization is the utilization cap above which a segment is
// skipped even though it holds reclaimable blocks: cleaning a nearly-full
// segment costs more (moving live blocks) than it gains. The liveness
// probe is used and the cap is enforced together, the more defensive of
// the two.
const maxGreedyUtilization = 0.60

// Greedy picks segments with the most reclaimable blocks first, subject to
// the utilization cap above.
type Greedy struct {
	NopLifecycle
}

// NewGreedy returns the greedy policy.
func NewGreedy() *Greedy { return &Greedy{} }

func (*Greedy) Name() string { return "greedy" }

func (*Greedy) Evaluate(ctx context.Context, env *Env, in EvalInput, candidate *Candidate) (bool, error) {
	live, ok := assessLive(ctx, env, in)
	if !ok {
		return false, nil
	}

	blocksPerSeg := in.FS.BlocksPerSegment
	if blocksPerSeg > 0 && float64(live.LiveBlocks)/float64(blocksPerSeg) > maxGreedyUtilization {
		return false, nil
	}

	candidate.Segnum = in.Segnum
	candidate.Score = float64(blocksPerSeg) - float64(live.LiveBlocks)
	if blocksPerSeg > 0 {
		candidate.Util = mathx.Clamp01(float64(live.LiveBlocks) / float64(blocksPerSeg))
	}
	return true, nil
}

// Compare sorts descending by score (most reclaimable first), tie-broken by
// Segnum ascending.
func (*Greedy) Compare(a, b Candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.Segnum < b.Segnum:
		return -1
	case a.Segnum > b.Segnum:
		return 1
	default:
		return 0
	}
}
