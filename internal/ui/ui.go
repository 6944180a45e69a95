// Package ui prints the colored status lines used throughout wgpctl.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Printer writes status output. Color is only used when out is a terminal.
type Printer struct {
	out   io.Writer
	err   io.Writer
	color bool

	header  *color.Color
	step    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
}

func New(out, errOut io.Writer) *Printer {
	return NewWithColor(out, errOut, writerIsTerminal(out) && os.Getenv("NO_COLOR") == "")
}

func NewWithColor(out, errOut io.Writer, useColor bool) *Printer {
	p := &Printer{
		out:     out,
		err:     errOut,
		color:   useColor,
		header:  color.New(color.FgBlue, color.Bold),
		step:    color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.header, p.step, p.success, p.warn, p.fail, p.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Out() io.Writer { return p.out }
func (p *Printer) Err() io.Writer { return p.err }

// Color reports whether escapes are emitted.
func (p *Printer) Color() bool { return p.color }

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Step announces the start of an external step.
func (p *Printer) Step(format string, a ...any) {
	fmt.Fprintln(p.out, p.step.Sprint("==> ")+fmt.Sprintf(format, a...))
}

func (p *Printer) Success(format string, a ...any) {
	fmt.Fprintln(p.out, p.success.Sprint("✓ "+fmt.Sprintf(format, a...)))
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintln(p.out, fmt.Sprintf(format, a...))
}

func (p *Printer) Warn(format string, a ...any) {
	fmt.Fprintln(p.err, p.warn.Sprint("warning: ")+fmt.Sprintf(format, a...))
}

func (p *Printer) Error(format string, a ...any) {
	fmt.Fprintln(p.err, p.fail.Sprint("error: ")+fmt.Sprintf(format, a...))
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label string, value any) {
	fmt.Fprintf(p.out, "  %s %v\n", p.dim.Sprint(runewidth.FillRight(label+":", 18)), value)
}

// Dim renders s in the faint style.
func (p *Printer) Dim(s string) string { return p.dim.Sprint(s) }

// Highlight renders s in the step style.
func (p *Printer) Highlight(s string) string { return p.step.Sprint(s) }

// Header prints title inside a box sized to the widest line.
func (p *Printer) Header(lines ...string) {
	width := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > width {
			width = w
		}
	}
	bar := strings.Repeat("═", width+2)
	fmt.Fprintln(p.out, p.header.Sprint("╔"+bar+"╗"))
	for _, line := range lines {
		fmt.Fprintln(p.out, p.header.Sprint("║ "+runewidth.FillRight(line, width)+" ║"))
	}
	fmt.Fprintln(p.out, p.header.Sprint("╚"+bar+"╝"))
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
