package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/nilfs-utils/segcleaner/pkg/liveness"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// Select runs p's own Selector implementation if it has one, otherwise runs
// DefaultSelect against it: a policy's optional select-override behavior is
// expressed as a type assertion rather than a nullable function pointer.
func Select(ctx context.Context, p Policy, env *Env, fs segment.FilesystemSummary, now, prottime int64, capacity int) (Result, error) {
	if sel, ok := p.(Selector); ok {
		return sel.Select(ctx, env, fs, now, prottime, capacity)
	}
	return DefaultSelect(ctx, p, env, fs, now, prottime, capacity)
}

// DefaultSelect implements the scan-evaluate-sort-truncate pipeline: every
// segment is fetched and evaluated, eligible candidates are accumulated,
// sorted best-first by p.Compare, and truncated to capacity.
func DefaultSelect(ctx context.Context, p Policy, env *Env, fs segment.FilesystemSummary, now, prottime int64, capacity int) (Result, error) {
	candidates := make([]Candidate, 0, capacity)
	// lastmod is a per-cycle side table keyed by segnum, used only to
	// compute Oldest without re-reading usage info after sorting.
	lastmod := make(map[segment.Number]int64, capacity)

	for segnum := segment.Number(0); uint64(segnum) < fs.NumSegments; segnum++ {
		info, err := env.Usage.UsageInfo(ctx, segnum)
		if err != nil {
			// Transient read failure: skip the segment, continue the cycle.
			continue
		}

		in := EvalInput{FS: fs, Info: info, Segnum: segnum, Now: now, Prottime: prottime}
		var cand Candidate
		eligible, err := p.Evaluate(ctx, env, in, &cand)
		if err != nil || !eligible {
			continue
		}
		if cand.Score != cand.Score { // NaN check without importing math
			return Result{}, fmt.Errorf("policy %q: evaluate produced NaN score for segment %d", p.Name(), segnum)
		}
		candidates = append(candidates, cand)
		lastmod[segnum] = info.LastMod
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return p.Compare(candidates[i], candidates[j]) < 0
	})

	if capacity >= 0 && len(candidates) > capacity {
		candidates = candidates[:capacity]
	}

	var oldest *int64
	segnums := make([]segment.Number, 0, len(candidates))
	for _, c := range candidates {
		segnums = append(segnums, c.Segnum)
		lm := lastmod[c.Segnum]
		if oldest == nil || lm < *oldest {
			v := lm
			oldest = &v
		}
	}

	return Result{Segnums: segnums, Oldest: oldest}, nil
}

// assessLive is a small shared helper every probe-backed evaluator uses:
// it runs the liveness probe and folds the result into the common
// eligibility rules, returning the live block count when eligible.
func assessLive(ctx context.Context, env *Env, in EvalInput) (live liveness.Result, eligible bool) {
	res, err := env.Probe.Assess(ctx, in.FS, in.Segnum)
	if !Eligible(in, res, err) {
		return liveness.Result{}, false
	}
	return res, true
}
