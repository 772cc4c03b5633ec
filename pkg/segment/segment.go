// Package segment holds the read-only data model shared by the liveness
// probe and the cleaning policies: segment numbers, per-segment usage
// records, and filesystem-wide summary statistics.
package segment

import "context"

// Number identifies a segment. It is dense from zero to NumSegments-1.
type Number uint64

// UsageInfo is the per-segment usage record a policy evaluates, the Go
// analogue of nilfs_suinfo.
type UsageInfo struct {
	Segnum Number
	// LastMod is the segment's last-modification time, unix seconds.
	LastMod int64
	// Blocks is the number of currently-allocated blocks in the segment.
	Blocks uint32
	// Reclaimable is true when the filesystem layer considers the segment
	// dirty and not currently active.
	Reclaimable bool
}

// FilesystemSummary is the mount-wide geometry and state a cleaning cycle
// needs, the Go analogue of nilfs_sustat.
type FilesystemSummary struct {
	BlocksPerSegment uint32
	// NongcCtime is the most recent write timestamp from a non-cleaner
	// source, unix seconds. Used only by the timestamp policy as a cutoff.
	NongcCtime int64
	NumSegments uint64
}

// Source fetches the usage record for a single segment. Implementations
// stand in for nilfs_get_suinfo; a transient read failure is reported as an
// error so the caller can skip the segment rather than fail the cycle.
type Source interface {
	UsageInfo(ctx context.Context, segnum Number) (UsageInfo, error)
}
