package policy

import (
	"context"

	"github.com/nilfs-utils/segcleaner/internal/mathx"
)

// CostBenefit balances reclaimable fraction against segment age: the
// numerator is space recovered, the denominator is the read-plus-write
// cost factor, and age biases toward stable (cold) segments unlikely to
// become dirty again soon.
type CostBenefit struct {
	NopLifecycle
}

// NewCostBenefit returns the cost-benefit policy.
func NewCostBenefit() *CostBenefit { return &CostBenefit{} }

func (*CostBenefit) Name() string { return "cost-benefit" }

func (*CostBenefit) Evaluate(ctx context.Context, env *Env, in EvalInput, candidate *Candidate) (bool, error) {
	live, ok := assessLive(ctx, env, in)
	if !ok {
		return false, nil
	}

	u := mathx.Clamp01(mathx.SafeDiv(float64(live.LiveBlocks), float64(in.FS.BlocksPerSegment)))
	age := in.Now - in.Info.LastMod
	if age < 0 {
		age = 0
	}

	candidate.Segnum = in.Segnum
	candidate.Score = (1.0 - u) * float64(age) / (1.0 + u)
	candidate.Util = u
	return true, nil
}

// Compare sorts descending by score, tie-broken by Segnum ascending.
func (*CostBenefit) Compare(a, b Candidate) int {
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
