package policy

import "context"

// Timestamp picks oldest-modified segments first, using a cutoff derived
// from the filesystem's last non-cleaner write time.
type Timestamp struct {
	NopLifecycle
}

// NewTimestamp returns the timestamp policy.
func NewTimestamp() *Timestamp { return &Timestamp{} }

func (*Timestamp) Name() string { return "timestamp" }

// Evaluate applies the standard eligibility rules, then computes imp/thr:
// imp is lastmod when it hasn't run ahead of now, otherwise nongc_ctime-1;
// a segment whose imp has caught up to or passed nongc_ctime was written
// after the latest non-cleaner write and must not be touched.
func (*Timestamp) Evaluate(ctx context.Context, env *Env, in EvalInput, candidate *Candidate) (bool, error) {
	if _, ok := assessLive(ctx, env, in); !ok {
		return false, nil
	}

	lastmod := in.Info.LastMod
	thr := in.FS.NongcCtime

	imp := thr - 1
	if lastmod <= in.Now {
		imp = lastmod
	}
	if imp >= thr {
		return false, nil
	}

	candidate.Segnum = in.Segnum
	candidate.Score = -float64(imp)
	return true, nil
}

// Compare sorts descending by score; since score is -imp, the oldest imp
// sorts first. Ties are broken by Segnum ascending.
func (*Timestamp) Compare(a, b Candidate) int {
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
