// Package console prints the probe's human-readable status lines.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console writes one status line per call. Lines are colorized only when the
// destination is a terminal.
type Console struct {
	out     io.Writer
	success *color.Color
	notice  *color.Color
	warning *color.Color
	failure *color.Color
}

// New creates a console writing to out, detecting terminal support when out is a file
func New(out io.Writer) *Console {
	return NewWithColor(out, isTerminal(out))
}

// NewWithColor creates a console with color explicitly enabled or disabled
func NewWithColor(out io.Writer, colorize bool) *Console {
	c := &Console{
		out:     out,
		success: color.New(color.FgGreen),
		notice:  color.New(color.FgCyan),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
	for _, col := range []*color.Color{c.success, c.notice, c.warning, c.failure} {
		if colorize {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress prints an uncolored step line
func (c *Console) Progress(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Success prints a step that completed
func (c *Console) Success(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Notice prints an observation such as an inbound message
func (c *Console) Notice(format string, args ...any) {
	c.notice.Fprintf(c.out, format+"\n", args...)
}

// Warning prints a closure or other early end of the run
func (c *Console) Warning(format string, args ...any) {
	c.warning.Fprintf(c.out, format+"\n", args...)
}

// Failure prints an error that ended the run
func (c *Console) Failure(format string, args ...any) {
	c.failure.Fprintf(c.out, format+"\n", args...)
}
