package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// output prints CLI messages, styled only when writing to a terminal.
type output struct {
	w     io.Writer
	color bool
}

func newOutput(w io.Writer) *output {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &output{w: w, color: color}
}

func (o *output) render(s lipgloss.Style, text string) string {
	if !o.color {
		return text
	}
	return s.Render(text)
}

func (o *output) heading(text string) string { return o.render(styleHeading, text) }
func (o *output) success(text string) string { return o.render(styleSuccess, text) }
func (o *output) failure(text string) string { return o.render(styleFailure, text) }
func (o *output) muted(text string) string   { return o.render(styleMuted, text) }

func (o *output) println(line string) {
	fmt.Fprintln(o.w, line)
}
