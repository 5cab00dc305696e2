package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `name:"version" help:"Print version."`

	Version   VersionCmd   `cmd:"" help:"Print version."`
	Config    ConfigCmd    `cmd:"" help:"Manage configuration."`
	Search    SearchCmd    `cmd:"" help:"Search GBIF occurrence records."`
	Epochs    EpochsCmd    `cmd:"" help:"Search occurrence records in fixed-width year epochs."`
	Diversity DiversityCmd `cmd:"" help:"Simpson's diversity index of records grouped by a field."`
	Snapshot  SnapshotCmd  `cmd:"" help:"Record snapshot utilities."`
	Open      OpenCmd      `cmd:"" help:"Open an occurrence page on gbif.org."`
	Proxies   ProxiesCmd   `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
