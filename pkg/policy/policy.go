// Package policy implements the pluggable segment-reclamation policy
// framework: a uniform Policy interface every strategy implements, a
// process-wide Registry keyed by name, a Default Selector pipeline shared
// by most policies, and the four built-in policies (timestamp, greedy,
// cost-benefit, segregation).
//
// A cleaning strategy normally implements every method of Policy as a
// concrete function (Init/Destroy may be no-ops, embed NopLifecycle); the
// one optional behavior, a custom selection pass, is expressed as an
// interface type assertion (Selector) rather than a nullable function
// pointer.
package policy

import (
	"context"

	"github.com/nilfs-utils/segcleaner/pkg/liveness"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// Candidate describes one evaluated segment. Score is policy-specific;
// higher is better only by convention of that policy's Compare — some
// policies (timestamp) encode "smaller wins" by negating the value that
// matters. Metadata is owned by the candidate for the lifetime of a single
// Select call; nothing in this package retains it past that call.
type Candidate struct {
	Segnum segment.Number
	Score  float64
	// Util is optional, informational live-fraction context set by the
	// greedy and cost-benefit policies; other policies leave it at 0.
	Util float64
	// Metadata is policy-specific auxiliary data (e.g. the segregation
	// policy's hot/cold classification). Nil unless a policy sets it.
	Metadata any
}

// Env bundles the per-cycle collaborators a policy needs to evaluate and
// select segments.
type Env struct {
	Probe *liveness.Probe
	Usage segment.Source
}

// EvalInput is everything Evaluate needs about one segment and the current
// cycle.
type EvalInput struct {
	FS       segment.FilesystemSummary
	Info     segment.UsageInfo
	Segnum   segment.Number
	Now      int64
	Prottime int64
}

// Result is the output of a selection: the chosen segment numbers in
// best-first order, plus two optional telemetry out-params.
type Result struct {
	Segnums []segment.Number
	// Oldest is the minimum LastMod among the selected segments, or nil if
	// nothing was selected.
	Oldest *int64
	// Prottime is a policy-adjusted protection timestamp. No built-in
	// policy sets this today; the field exists as an optional output for
	// policies that need to report a different cutoff than the one they
	// were given.
	Prottime *int64
}

// Policy is the uniform contract every cleaning strategy implements.
type Policy interface {
	// Name returns the policy's registry name.
	Name() string

	// Init establishes any policy-local state. Called once when the policy
	// is selected. A non-nil error aborts daemon startup.
	Init(ctx context.Context, env *Env) error

	// Destroy releases policy-local state. Idempotent.
	Destroy()

	// Evaluate populates candidate for one segment and reports whether it
	// is eligible for reclamation. Must not mutate in.
	Evaluate(ctx context.Context, env *Env, in EvalInput, candidate *Candidate) (eligible bool, err error)

	// Compare imposes a total order over candidates, best-first. It must
	// tie-break on Segnum ascending so selection is deterministic.
	Compare(a, b Candidate) int
}

// Selector is the optional fifth method slot: a policy that implements it
// replaces the Default Selector entirely.
type Selector interface {
	Select(ctx context.Context, env *Env, fs segment.FilesystemSummary, now, prottime int64, capacity int) (Result, error)
}

// NopLifecycle is embeddable by policies with no Init/Destroy work.
type NopLifecycle struct{}

func (NopLifecycle) Init(context.Context, *Env) error { return nil }
func (NopLifecycle) Destroy()                         {}

// Eligible applies the eligibility rules common to every evaluator: clean
// segments, time-protected segments, and segments the filesystem flags
// non-reclaimable are all ineligible. live is the result of probing the
// segment's liveness; a non-nil probeErr is treated exactly like Clean.
func Eligible(in EvalInput, live liveness.Result, probeErr error) bool {
	if probeErr != nil {
		return false
	}
	if live.Status == liveness.Clean {
		return false
	}
	if !in.Info.Reclaimable {
		return false
	}
	if timeProtected(in.Info.LastMod, in.Prottime, in.Now) {
		return false
	}
	return true
}

// timeProtected reports whether lastmod falls within [prottime, now],
// inclusive on both ends.
func timeProtected(lastmod, prottime, now int64) bool {
	return lastmod >= prottime && lastmod <= now
}
