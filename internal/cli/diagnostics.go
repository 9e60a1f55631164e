package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Diagnostics renders user-facing CLI output. Errors go to stderr; the
// color package disables itself when stdout is not a terminal.
type Diagnostics struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	success *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
}

// NewDiagnostics creates a diagnostics sink on stdout/stderr.
func NewDiagnostics(verbose bool) *Diagnostics {
	return &Diagnostics{
		out:     os.Stdout,
		errOut:  os.Stderr,
		verbose: verbose,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
	}
}

// Info prints a plain line.
func (d *Diagnostics) Info(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

// Debug prints only in verbose mode.
func (d *Diagnostics) Debug(format string, args ...any) {
	if d.verbose {
		d.dim.Fprintf(d.out, format+"\n", args...)
	}
}

// Success prints a green checkmarked line.
func (d *Diagnostics) Success(format string, args ...any) {
	d.success.Fprintf(d.out, "✓ "+format+"\n", args...)
}

// Warn prints a yellow line.
func (d *Diagnostics) Warn(format string, args ...any) {
	d.warn.Fprintf(d.out, "! "+format+"\n", args...)
}

// Error prints a red line to stderr.
func (d *Diagnostics) Error(format string, args ...any) {
	d.fail.Fprintf(d.errOut, "✗ "+format+"\n", args...)
}

// List prints an indented bullet line.
func (d *Diagnostics) List(format string, args ...any) {
	fmt.Fprintf(d.out, "  - "+format+"\n", args...)
}
