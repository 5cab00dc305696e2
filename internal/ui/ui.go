package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type UI struct {
	Out          io.Writer
	Err          io.Writer
	Output       *termenv.Output
	ErrOutput    *termenv.Output
	ColorEnabled bool
}

func New(out io.Writer, err io.Writer, mode ColorMode, disableColor bool) *UI {
	output := termenv.NewOutput(out)
	errOutput := termenv.NewOutput(err)

	return &UI{
		Out:          out,
		Err:          err,
		Output:       output,
		ErrOutput:    errOutput,
		ColorEnabled: shouldEnableColor(output, mode, disableColor),
	}
}

func shouldEnableColor(output *termenv.Output, mode ColorMode, disableColor bool) bool {
	if disableColor {
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return output.ColorProfile() != termenv.Ascii
	}
}

func (u *UI) Errorf(format string, args ...any) {
	u.print(u.Err, u.ErrOutput, "1", format, args...)
}

func (u *UI) Warnf(format string, args ...any) {
	u.print(u.Err, u.ErrOutput, "3", format, args...)
}

// Infof writes to stderr so stdout stays clean for record output.
func (u *UI) Infof(format string, args ...any) {
	u.print(u.Err, u.ErrOutput, "4", format, args...)
}

func (u *UI) Successf(format string, args ...any) {
	u.print(u.Err, u.ErrOutput, "2", format, args...)
}

func (u *UI) print(w io.Writer, output *termenv.Output, color string, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled && output != nil {
		msg = output.String(msg).Foreground(output.Color(color)).String()
	}
	fmt.Fprintln(w, msg)
}

// IsTTY reports whether out is a terminal that accepts escape sequences.
func IsTTY(out io.Writer) bool {
	return termenv.NewOutput(out).ColorProfile() != termenv.Ascii
}

// StartIndicator draws a spinner with elapsed seconds on stderr until the
// returned stop function is called. It is a no-op when stderr is not a
// terminal.
func (u *UI) StartIndicator(label string) func() {
	if u == nil || u.Err == nil || !IsTTY(u.Err) {
		return func() {}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(u.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				fmt.Fprintf(u.Err, "\r\033[2K%s... %ds %s", label, seconds, frames[index%len(frames)])
				index++
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}

func NormalizeColorMode(value string) ColorMode {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case string(ColorAlways):
		return ColorAlways
	case string(ColorNever):
		return ColorNever
	default:
		return ColorAuto
	}
}
