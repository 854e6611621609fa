package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console prints the human-readable progress of a run.
type Console struct {
	out  io.Writer
	warn *color.Color
	fail *color.Color
	ok   *color.Color
	head *color.Color
}

func NewConsole(out io.Writer, colorize bool) *Console {
	c := &Console{
		out:  out,
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
		ok:   color.New(color.FgGreen),
		head: color.New(color.Bold),
	}
	for _, col := range []*color.Color{c.warn, c.fail, c.ok, c.head} {
		if colorize {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Step announces a pipeline stage on its own paragraph.
func (c *Console) Step(format string, args ...interface{}) {
	fmt.Fprintln(c.out)
	c.head.Fprintf(c.out, format, args...)
	fmt.Fprintln(c.out)
}

// Text prints body, skipping it entirely when it is blank.
func (c *Console) Text(body string) {
	body = strings.TrimRight(body, "\n")
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintln(c.out, body)
}

// Section prints a titled block; an empty body still prints the title.
func (c *Console) Section(title, body string) {
	c.Step("%s", title)
	c.Text(body)
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.warn.Fprintf(c.out, "⚠️  "+format, args...)
	fmt.Fprintln(c.out)
}

func (c *Console) Fatal(format string, args ...interface{}) {
	c.fail.Fprintf(c.out, "❌ "+format, args...)
	fmt.Fprintln(c.out)
}

func (c *Console) Success(format string, args ...interface{}) {
	fmt.Fprintln(c.out)
	c.ok.Fprintf(c.out, format, args...)
	fmt.Fprintln(c.out)
}
