package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/browser"

	"github.com/jimezsa/gbifcli/internal/export"
)

type OpenCmd struct {
	Key   string `arg:"" help:"GBIF occurrence key."`
	Print bool   `help:"Print the occurrence page URL instead of opening it."`
}

func (o *OpenCmd) Run(ctx *Context) error {
	key := strings.TrimSpace(o.Key)
	if _, err := strconv.ParseInt(key, 10, 64); err != nil {
		return fmt.Errorf("invalid occurrence key %q", o.Key)
	}
	target := export.OccurrenceURL + url.PathEscape(key)

	if o.Print {
		_, err := fmt.Fprintln(ctx.Out, target)
		return err
	}

	browser.Stdout = ctx.Err
	browser.Stderr = ctx.Err
	ctx.Logger.Debug().Str("url", target).Msg("open")
	return browser.OpenURL(target)
}
