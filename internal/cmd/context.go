package cmd

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jimezsa/gbifcli/internal/config"
	"github.com/jimezsa/gbifcli/internal/gbif"
	"github.com/jimezsa/gbifcli/internal/ui"
)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode

	// RunContext is cancelled on interrupt. Nil means context.Background.
	RunContext context.Context
	// Doer overrides the outbound HTTP client.
	Doer gbif.Doer
	// Fs backs snapshot, input and output files. Nil means the OS filesystem.
	Fs afero.Fs
}

func (c *Context) fs() afero.Fs {
	if c.Fs != nil {
		return c.Fs
	}
	return afero.NewOsFs()
}

func (c *Context) context() context.Context {
	if c.RunContext != nil {
		return c.RunContext
	}
	return context.Background()
}
