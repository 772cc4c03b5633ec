package policy

import (
	"context"
	"sort"
	"time"

	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// HotThreshold classifies a segment as hot when it was modified more
// recently than this. It and AgeWindow differ by a factor of 21,600 (more
// than four orders of magnitude) and are never reconciled, so both are kept as independent
// tunables rather than silently unified.
const HotThreshold = 24 * time.Hour

// AgeWindow bounds how far a candidate's lastmod may drift from the seed's
// before it is excluded from the cohort. Kept narrow to force strict
// cohorting.
const AgeWindow = 4 * time.Second

// hotColdMeta is the segregation policy's per-candidate metadata.
type hotColdMeta struct {
	IsHot      bool
	LiveBlocks uint32
	LastMod    int64
}

// segregationData is the segregation policy's cached state. Init sets
// hotThreshold; Evaluate refreshes blocksPerSegment on every call.
type segregationData struct {
	blocksPerSegment uint32
	hotThreshold     int64
}

// Segregation classifies segments by age and picks a temporally clustered
// batch, so that relocated live blocks land together in a new segment by
// age class. It supplies its own Selector rather than using DefaultSelect.
type Segregation struct {
	data *segregationData
}

// NewSegregation returns the hot-cold segregation policy.
func NewSegregation() *Segregation { return &Segregation{} }

func (*Segregation) Name() string { return "segregation" }

// Init caches the hot threshold; blocks-per-segment is filled in later by
// Evaluate from each cycle's FilesystemSummary. Segregation owns this state
// exclusively for its own lifetime.
func (s *Segregation) Init(_ context.Context, _ *Env) error {
	s.data = &segregationData{hotThreshold: int64(HotThreshold.Seconds())}
	return nil
}

// Destroy drops the cached state. Idempotent.
func (s *Segregation) Destroy() { s.data = nil }

// Evaluate applies the standard eligibility rules and attaches hot/cold
// classification metadata; it does not compute a score because selection
// sorts by age, not score. Score is left at 0.0.
func (s *Segregation) Evaluate(ctx context.Context, env *Env, in EvalInput, candidate *Candidate) (bool, error) {
	live, ok := assessLive(ctx, env, in)
	if !ok {
		return false, nil
	}

	age := in.Now - in.Info.LastMod
	if age < 0 {
		age = 0
	}

	threshold := int64(HotThreshold.Seconds())
	if s.data != nil {
		// BlocksPerSegment isn't known at Init time in every deployment
		// path (a fresh FilesystemSummary arrives per cycle), so it is
		// refreshed here rather than trusted stale from Init.
		s.data.blocksPerSegment = in.FS.BlocksPerSegment
		threshold = s.data.hotThreshold
	}

	candidate.Segnum = in.Segnum
	candidate.Score = 0.0
	candidate.Metadata = &hotColdMeta{
		IsHot:      age < threshold,
		LiveBlocks: live.LiveBlocks,
		LastMod:    in.Info.LastMod,
	}
	return true, nil
}

// Compare exists to satisfy Policy but is unused by Select, which sorts by
// lastmod rather than score. Kept total and Segnum-tie-broken for
// consistency with every other policy in the package.
func (*Segregation) Compare(a, b Candidate) int {
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

// Select implements strict age-clustering selection: scan, sort by lastmod
// ascending, seed on the oldest eligible candidate,
// walk forward including only candidates within AgeWindow of the seed
// (skipping, never stopping, on out-of-window candidates), and stop once
// capacity is reached or the accumulated live-block count would fill a new
// segment.
func (s *Segregation) Select(ctx context.Context, env *Env, fs segment.FilesystemSummary, now, prottime int64, capacity int) (Result, error) {
	type scored struct {
		Candidate
		meta *hotColdMeta
	}

	candidates := make([]scored, 0, capacity)
	for segnum := segment.Number(0); uint64(segnum) < fs.NumSegments; segnum++ {
		info, err := env.Usage.UsageInfo(ctx, segnum)
		if err != nil {
			continue
		}
		in := EvalInput{FS: fs, Info: info, Segnum: segnum, Now: now, Prottime: prottime}
		var cand Candidate
		eligible, err := s.Evaluate(ctx, env, in, &cand)
		if err != nil || !eligible {
			// A per-segment evaluation error is absorbed like any other
			// ineligibility: skip this segment, the cycle continues.
			continue
		}
		meta, _ := cand.Metadata.(*hotColdMeta)
		candidates = append(candidates, scored{Candidate: cand, meta: meta})
	}

	if len(candidates) == 0 {
		return Result{}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		mi, mj := candidates[i].meta, candidates[j].meta
		if mi.LastMod != mj.LastMod {
			return mi.LastMod < mj.LastMod
		}
		return candidates[i].Segnum < candidates[j].Segnum
	})

	seedTS := candidates[0].meta.LastMod
	window := int64(AgeWindow.Seconds())

	var (
		segnums     []segment.Number
		accumBlocks uint64
		oldest      *int64
	)
	for _, c := range candidates {
		if len(segnums) >= capacity {
			break
		}
		diff := seedTS - c.meta.LastMod
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			continue // outside the cohort window: skip, don't stop
		}

		segnums = append(segnums, c.Segnum)
		if oldest == nil || c.meta.LastMod < *oldest {
			v := c.meta.LastMod
			oldest = &v
		}
		accumBlocks += uint64(c.meta.LiveBlocks)
		if fs.BlocksPerSegment > 0 && accumBlocks >= uint64(fs.BlocksPerSegment) {
			break
		}
	}

	return Result{Segnums: segnums, Oldest: oldest}, nil
}
