package policy

import (
	"context"

	"github.com/nilfs-utils/segcleaner/pkg/checkpoint"
	"github.com/nilfs-utils/segcleaner/pkg/liveness"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

// fakeSource serves fixed UsageInfo records keyed by segnum, standing in for
// a live nilfs_get_suinfo call.
type fakeSource struct {
	infos map[segment.Number]segment.UsageInfo
}

func (f *fakeSource) UsageInfo(_ context.Context, segnum segment.Number) (segment.UsageInfo, error) {
	info, ok := f.infos[segnum]
	if !ok {
		return segment.UsageInfo{}, checkpoint.ErrNoCheckpoints
	}
	return info, nil
}

// fakeReader reports a fixed live-block count per segnum; a segnum with a
// zero (or absent) live-block entry is reported Clean, every other one Dirty.
type fakeReader struct {
	live map[segment.Number]uint32
}

func (f *fakeReader) AssessSegment(_ context.Context, _ segment.FilesystemSummary, segnum segment.Number, _ uint64) (liveness.Result, error) {
	blocks := f.live[segnum]
	if blocks == 0 {
		return liveness.Result{Status: liveness.Clean}, nil
	}
	return liveness.Result{Status: liveness.Dirty, LiveBlocks: blocks}, nil
}

// fakeTracker always reports protcno 1, a value no test scenario depends on.
type fakeTracker struct{}

func (fakeTracker) TrackBack(context.Context, int64) (uint64, error) { return 1, nil }

func newEnv(infos map[segment.Number]segment.UsageInfo, live map[segment.Number]uint32) *Env {
	return &Env{
		Usage: &fakeSource{infos: infos},
		Probe: &liveness.Probe{
			Reader:                &fakeReader{live: live},
			Tracker:               fakeTracker{},
			ProtectionIntervalSec: 0,
		},
	}
}
