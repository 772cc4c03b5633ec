// Package cleanerd wires the policy-selection core to a cycle loop: a
// ticker/select shape that runs one cleaning cycle per tick and stops
// cleanly on context cancellation.
package cleanerd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nilfs-utils/segcleaner/pkg/policy"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// Config is the daemon's own bootstrap configuration, the Go analogue of
// the subset of nilfs_cleanerd's fields not owned by a policy or the
// liveness probe.
type Config struct {
	PolicyName           string
	NSegmentsPerCleanMax int
	CleaningInterval     time.Duration
	// ProtectionIntervalSec is the checkpoint walk-back interval. The Daemon
	// does not read it: TrackBack receives the ProtectionIntervalSec set on
	// the liveness probe in Env, which the caller sets to the same value.
	ProtectionIntervalSec int64
	// ProtectionWindow derives prottime = now - ProtectionWindow for each
	// cycle; computing it here, not inside a policy, keeps prottime a plain
	// input to Evaluate/Select rather than something each policy rederives.
	ProtectionWindow time.Duration
	// MinReclaimableBlocks gates a selection: if the projected reclaim
	// (sum of blocks_per_segment - live_blocks across selected segments)
	// falls under this, the cycle is skipped. Zero disables the gate.
	MinReclaimableBlocks uint64
}

// Daemon runs cleaning cycles against one policy, reporting results over a
// ClientQueue.
type Daemon struct {
	cfg    Config
	p      policy.Policy
	env    *policy.Env
	queue  ClientQueue
	logger *slog.Logger
}

// New resolves cfg.PolicyName against reg and builds a Daemon ready to run
// cycles. It fails fast on an unknown policy name, matching
// cleanerdconf.Load's own eager validation: an unknown policy name is a
// startup error, not a per-cycle one.
func New(cfg Config, reg *policy.Registry, env *policy.Env, queue ClientQueue, logger *slog.Logger) (*Daemon, error) {
	p, err := reg.Lookup(cfg.PolicyName)
	if err != nil {
		return nil, ErrUnknownPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}
	if queue == nil {
		queue = NoopQueue{Logger: logger}
	}
	return &Daemon{cfg: cfg, p: p, env: env, queue: queue, logger: logger}, nil
}

// RunCycle runs one selection pass against fs as of now, applies the
// min-reclaimable-blocks gate, and reports the outcome over the daemon's
// queue. A gated (below-threshold) cycle reports Skipped and returns
// ErrBelowReclaimThreshold; callers running Loop treat that as a normal,
// non-fatal outcome.
func (d *Daemon) RunCycle(ctx context.Context, fs segment.FilesystemSummary, now time.Time) (policy.Result, error) {
	jobID := uuid.New()
	prottime := now.Add(-d.cfg.ProtectionWindow).Unix()

	res, err := policy.Select(ctx, d.p, d.env, fs, now.Unix(), prottime, d.cfg.NSegmentsPerCleanMax)
	if err != nil {
		return policy.Result{}, err
	}

	if d.cfg.MinReclaimableBlocks > 0 {
		reclaim, err := d.projectedReclaim(ctx, fs, res.Segnums)
		if err != nil {
			return policy.Result{}, err
		}
		if reclaim < d.cfg.MinReclaimableBlocks {
			_ = d.queue.Notify(ctx, CycleReport{
				JobID:   jobID,
				Segnums: res.Segnums,
				Skipped: true,
				SkipWhy: "projected reclaim below minimum threshold",
			})
			return policy.Result{}, ErrBelowReclaimThreshold
		}
	}

	if err := d.queue.Notify(ctx, CycleReport{JobID: jobID, Segnums: res.Segnums}); err != nil {
		d.logger.Warn("notify failed", "job_id", jobID, "err", err)
	}
	return res, nil
}

// projectedReclaim sums blocks_per_segment - live_blocks across segnums
// using the same liveness probe the policy used to select them.
func (d *Daemon) projectedReclaim(ctx context.Context, fs segment.FilesystemSummary, segnums []segment.Number) (uint64, error) {
	var total uint64
	for _, segnum := range segnums {
		live, err := d.env.Probe.Assess(ctx, fs, segnum)
		if err != nil {
			continue
		}
		if uint64(live.LiveBlocks) < uint64(fs.BlocksPerSegment) {
			total += uint64(fs.BlocksPerSegment) - uint64(live.LiveBlocks)
		}
	}
	return total, nil
}

// Loop runs RunCycle on cfg.CleaningInterval until ctx is canceled.
// Cancellation is cooperative between cycles only: Loop checks ctx.Done()
// at the top of each tick and never interrupts a RunCycle already in
// flight.
func (d *Daemon) Loop(ctx context.Context, fs segment.FilesystemSummary) error {
	ticker := time.NewTicker(d.cfg.CleaningInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("cleanerd stopping")
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := d.RunCycle(ctx, fs, now); err != nil {
				if errors.Is(err, ErrBelowReclaimThreshold) {
					d.logger.Info("cycle skipped", "reason", err)
				} else {
					d.logger.Warn("cycle failed", "err", err)
				}
				continue
			}
		}
	}
}
