package cleanerd

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// CycleReport summarizes one completed cleaning cycle for a control client.
// JobID correlates this report with the cycle that produced it, the Go
// analogue of nilfs_cleanerd's jobid field.
type CycleReport struct {
	JobID   uuid.UUID
	Segnums []segment.Number
	Skipped bool
	SkipWhy string
}

// Command is a request from a control client, arriving over whatever
// transport ClientQueue wraps. ClientID identifies the requesting client,
// the Go analogue of nilfs_cleanerd's client_uuid.
type Command struct {
	ClientID uuid.UUID
	Kind     CommandKind
}

// CommandKind enumerates the control operations a client may request.
type CommandKind int

const (
	CommandReload CommandKind = iota
	CommandShutdown
)

// ClientQueue models the boundary between the daemon and its control
// client: a real implementation would wrap a POSIX message queue (mqueue(7))
// the way a userspace cleaner daemon typically does; the wire protocol
// itself is out of scope. This interface exists only so Daemon has
// somewhere to report a completed cycle and accept a command without
// depending on a concrete transport.
type ClientQueue interface {
	Notify(ctx context.Context, report CycleReport) error
	Commands() <-chan Command
}

// NoopQueue discards reports (after logging them) and never delivers a
// command; it is the only ClientQueue implementation this module provides.
type NoopQueue struct {
	Logger *slog.Logger
}

// Notify logs the report and returns nil; it never blocks or fails.
func (q NoopQueue) Notify(_ context.Context, report CycleReport) error {
	logger := q.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if report.Skipped {
		logger.Info("cycle skipped", "job_id", report.JobID, "why", report.SkipWhy)
		return nil
	}
	logger.Info("cycle complete", "job_id", report.JobID, "segments", len(report.Segnums))
	return nil
}

// Commands returns a channel that never yields a value.
func (NoopQueue) Commands() <-chan Command {
	return nil
}
