// Package liveness implements the Liveness Probe: given a segment and a
// protection checkpoint, it reports whether the segment is dirty and how
// many blocks remain live at or before that checkpoint.
//
// Reader stands in for the ioctl that walks a segment's blocks against the
// checkpoint log.
package liveness

import (
	"context"
	"fmt"

	"github.com/nilfs-utils/segcleaner/pkg/checkpoint"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// Status classifies the outcome of assessing one segment.
type Status int

const (
	// Clean means the segment holds no live blocks; exclude it.
	Clean Status = iota
	// Dirty means the segment holds LiveBlocks live blocks.
	Dirty
)

// Result is the outcome of assessing a single segment.
type Result struct {
	Status     Status
	LiveBlocks uint32
}

// Reader assesses a single segment's liveness as of protcno, the checkpoint
// number below which it is safe to reclaim. Live blocks are counted only
// against data visible at or before protcno.
type Reader interface {
	AssessSegment(ctx context.Context, fs segment.FilesystemSummary, segnum segment.Number, protcno uint64) (Result, error)
}

// Probe wires a Reader to a checkpoint.Tracker: given the filesystem handle
// (fs), a segment, and a protection interval, it reports whether the
// segment is dirty and how many blocks remain live.
//
// Assess is idempotent within one cycle: calling it twice with the same
// arguments against an unchanged Reader/Tracker yields the same Result.
type Probe struct {
	Reader  Reader
	Tracker checkpoint.Tracker
	// ProtectionIntervalSec is the number of seconds the checkpoint tracker
	// walks back from the current tip to compute the protection checkpoint.
	ProtectionIntervalSec int64
}

// Assess reports clean/dirty for a single segment. A transient read failure
// or a checkpoint lookup failure is returned as an error; callers must treat
// any non-nil error the same as Clean — exclude the segment and continue
// the cycle, never fail it.
func (p *Probe) Assess(ctx context.Context, fs segment.FilesystemSummary, segnum segment.Number) (Result, error) {
	protcno, err := p.Tracker.TrackBack(ctx, p.ProtectionIntervalSec)
	if err != nil {
		return Result{}, fmt.Errorf("liveness: checkpoint lookup for segment %d: %w", segnum, err)
	}

	res, err := p.Reader.AssessSegment(ctx, fs, segnum, protcno)
	if err != nil {
		return Result{}, fmt.Errorf("liveness: assess segment %d: %w", segnum, err)
	}
	return res, nil
}
