package cmd

import (
	"fmt"

	"github.com/jimezsa/gbifcli/internal/snapshot"
)

type SnapshotCmd struct {
	Diff   SnapshotDiffCmd   `cmd:"" help:"Write records not yet in a snapshot (A-B) to JSON."`
	Update SnapshotUpdateCmd `cmd:"" help:"Merge new records into a snapshot JSON."`
}

type SnapshotDiffCmd struct {
	New   string `name:"new" required:"" help:"Path to new records JSON file (A)."`
	Seen  string `name:"seen" required:"" help:"Path to snapshot JSON file (B). Missing file is treated as empty."`
	Out   string `name:"out" required:"" help:"Output path for unseen records JSON file (C)."`
	Stats bool   `name:"stats" help:"Print comparison stats."`
}

type SnapshotUpdateCmd struct {
	Seen  string `name:"seen" required:"" help:"Path to snapshot JSON file (B). Missing file is treated as empty."`
	Input string `name:"input" required:"" help:"Path to input records JSON file to merge into the snapshot."`
	Out   string `name:"out" help:"Output path for the updated snapshot (default: --seen)."`
	Stats bool   `name:"stats" help:"Print merge stats."`
}

func (c *SnapshotDiffCmd) Run(ctx *Context) error {
	store := snapshot.NewStore(ctx.fs())
	newRecords, err := store.Read(c.New)
	if err != nil {
		return fmt.Errorf("read --new: %w", err)
	}
	seenRecords, err := store.ReadAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	unseen, stats := snapshot.Diff(newRecords, seenRecords)
	if err := store.Write(c.Out, unseen); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if c.Stats {
		_, err := fmt.Fprintf(
			ctx.Out,
			"total_new=%d total_seen=%d invalid_skipped=%d unseen_emitted=%d\n",
			stats.TotalNew,
			stats.TotalSeen,
			stats.InvalidSkipped(),
			stats.Unseen,
		)
		return err
	}
	return nil
}

func (c *SnapshotUpdateCmd) Run(ctx *Context) error {
	store := snapshot.NewStore(ctx.fs())
	seenRecords, err := store.ReadAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}
	input, err := store.Read(c.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}

	merged, stats := snapshot.Merge(seenRecords, input)
	out := c.Out
	if out == "" {
		out = c.Seen
	}
	if err := store.Write(out, merged); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}

	if c.Stats {
		_, err := fmt.Fprintf(
			ctx.Out,
			"total_seen=%d total_input=%d invalid_skipped=%d added=%d total_out=%d\n",
			stats.TotalSeen,
			stats.TotalInput,
			stats.InvalidSkipped(),
			stats.Added,
			stats.TotalOut,
		)
		return err
	}
	return nil
}
