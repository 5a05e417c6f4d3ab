// Package display prints delivered chat lines to the terminal. It is
// the Go-idiomatic, cross-platform stand-in for the original source's
// bare `print ip + ":" + str(port) + ": " + message` in persist_message.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer renders one delivered chat line.
type Printer interface {
	Print(sender string, text string)
}

// ColorPrinter colors the "sender:port" prefix so a scroll of chat
// lines stays readable, using fatih/color for the ANSI handling (and,
// transitively, mattn/go-colorable so it still degrades sanely on
// Windows consoles).
type ColorPrinter struct {
	out    io.Writer
	sender *color.Color
}

// NewColorPrinter builds a ColorPrinter writing to w.
func NewColorPrinter(w io.Writer) *ColorPrinter {
	sender := color.New(color.FgCyan, color.Bold)
	sender.EnableColor()
	return &ColorPrinter{out: w, sender: sender}
}

// NewStdoutPrinter is the default used by cmd/ringnode.
func NewStdoutPrinter() *ColorPrinter {
	return NewColorPrinter(os.Stdout)
}

func (p *ColorPrinter) Print(sender string, text string) {
	prefix := p.sender.Sprintf("%s:", sender)
	fmt.Fprintf(p.out, "%s %s\n", prefix, text)
}
