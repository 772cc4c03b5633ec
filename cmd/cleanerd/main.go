// Command cleanerd runs one segment-reclamation cycle against a snapshot
// fixture and prints the selected segments. A real deployment wires the
// same pkg/cleanerd.Daemon against a live mount's checkpoint log and usage
// ioctls; this entrypoint stands in a YAML fixture for that mount so the
// policy engine can be exercised end to end without one.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nilfs-utils/segcleaner/pkg/blockfmt"
	"github.com/nilfs-utils/segcleaner/pkg/checkpoint"
	"github.com/nilfs-utils/segcleaner/pkg/cleanerd"
	"github.com/nilfs-utils/segcleaner/pkg/cleanerdconf"
	"github.com/nilfs-utils/segcleaner/pkg/liveness"
	"github.com/nilfs-utils/segcleaner/pkg/policy"
	"github.com/nilfs-utils/segcleaner/pkg/segment"
)

type opts struct {
	configPath   string
	snapshotPath string
	loop         bool
}

// segmentFixture is one segment's usage plus the live-block count a real
// ioctl would report; the YAML snapshot format this CLI reads.
type segmentFixture struct {
	Segnum      uint64 `yaml:"segnum"`
	LastMod     int64  `yaml:"lastmod"`
	Blocks      uint32 `yaml:"blocks"`
	Reclaimable bool   `yaml:"reclaimable"`
	LiveBlocks  uint32 `yaml:"live_blocks"`
}

type checkpointFixture struct {
	Cno  uint64 `yaml:"cno"`
	Time int64  `yaml:"time"`
}

type snapshot struct {
	BlocksPerSegment uint32              `yaml:"blocks_per_segment"`
	NongcCtime       int64               `yaml:"nongc_ctime"`
	Segments         []segmentFixture    `yaml:"segments"`
	Checkpoints      []checkpointFixture `yaml:"checkpoints"`
	Tip              uint64              `yaml:"tip"`
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "cleanerd",
		Short: "Segment-reclamation policy engine for a log-structured filesystem cleaner",
		Long: `cleanerd evaluates a filesystem's segments against a pluggable
cleaning policy (timestamp, greedy, cost-benefit, segregation) and reports
which segments are eligible for reclamation this cycle.

This build reads its filesystem state from a YAML snapshot fixture rather
than a live mount; see cleanerdconf for the daemon's own bootstrap config.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().StringVar(&o.configPath, "config", "cleanerd.yaml", "path to the daemon bootstrap config")
	root.Flags().StringVar(&o.snapshotPath, "snapshot", "snapshot.yaml", "path to a YAML filesystem-state snapshot")
	root.Flags().BoolVar(&o.loop, "loop", false, "run continuously on the configured cleaning interval instead of one cycle")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func loadSnapshot(path string) (*snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

type fixtureSource struct {
	infos map[segment.Number]segment.UsageInfo
}

func (f *fixtureSource) UsageInfo(_ context.Context, segnum segment.Number) (segment.UsageInfo, error) {
	info, ok := f.infos[segnum]
	if !ok {
		return segment.UsageInfo{}, fmt.Errorf("segment %d: %w", segnum, os.ErrNotExist)
	}
	return info, nil
}

type fixtureReader struct {
	live map[segment.Number]uint32
}

func (f *fixtureReader) AssessSegment(_ context.Context, _ segment.FilesystemSummary, segnum segment.Number, _ uint64) (liveness.Result, error) {
	blocks := f.live[segnum]
	if blocks == 0 {
		return liveness.Result{Status: liveness.Clean}, nil
	}
	return liveness.Result{Status: liveness.Dirty, LiveBlocks: blocks}, nil
}

func run(ctx context.Context, o opts) error {
	reg := policy.DefaultRegistry()

	cfg, err := cleanerdconf.Load(o.configPath, reg)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(o.snapshotPath)
	if err != nil {
		return err
	}

	fs := segment.FilesystemSummary{
		BlocksPerSegment: snap.BlocksPerSegment,
		NongcCtime:       snap.NongcCtime,
		NumSegments:      uint64(len(snap.Segments)),
	}

	infos := make(map[segment.Number]segment.UsageInfo, len(snap.Segments))
	live := make(map[segment.Number]uint32, len(snap.Segments))
	for _, seg := range snap.Segments {
		n := segment.Number(seg.Segnum)
		infos[n] = segment.UsageInfo{
			Segnum:      n,
			LastMod:     seg.LastMod,
			Blocks:      seg.Blocks,
			Reclaimable: seg.Reclaimable,
		}
		live[n] = seg.LiveBlocks
	}

	cpTimes := make(map[uint64]int64, len(snap.Checkpoints))
	for _, cp := range snap.Checkpoints {
		cpTimes[cp.Cno] = cp.Time
	}
	var tracker checkpoint.Tracker = checkpoint.NewHistory(cpTimes, snap.Tip)

	env := &policy.Env{
		Usage: &fixtureSource{infos: infos},
		Probe: &liveness.Probe{
			Reader:                &fixtureReader{live: live},
			Tracker:               tracker,
			ProtectionIntervalSec: cfg.ProtectionIntervalSec,
		},
	}

	d, err := cleanerd.New(cleanerd.Config{
		PolicyName:            cfg.Policy,
		NSegmentsPerCleanMax:  cfg.NSegmentsPerCleanMax,
		CleaningInterval:      cfg.CleaningInterval,
		ProtectionIntervalSec: cfg.ProtectionIntervalSec,
		ProtectionWindow:      cfg.ProtectionWindow,
		MinReclaimableBlocks:  cfg.MinReclaimableBlocks,
	}, reg, env, nil, slog.Default())
	if err != nil {
		return err
	}

	if o.loop {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return d.Loop(ctx, fs)
	}

	res, err := d.RunCycle(ctx, fs, time.Now())
	if err != nil {
		return err
	}

	printSelection(res, infos, fs.BlocksPerSegment)
	return nil
}

func printSelection(res policy.Result, infos map[segment.Number]segment.UsageInfo, blocksPerSegment uint32) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "SEGNUM\tLASTMOD\tBLOCKS\tFRACTION")
	fmt.Fprintln(tw, "------\t-------\t------\t--------")
	for _, segnum := range res.Segnums {
		info := infos[segnum]
		blocks := blockfmt.Count(info.Blocks)
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.1f%%\n",
			segnum, info.LastMod, blocks.Humanized(), blocks.Fraction(blockfmt.Count(blocksPerSegment))*100)
	}

	if res.Oldest != nil {
		fmt.Fprintf(tw, "\noldest selected lastmod: %d\n", *res.Oldest)
	}
}
