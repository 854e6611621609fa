package ui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

var (
	colorActiveBlue = lipgloss.Color("39")
	colorDimGray    = lipgloss.Color("240")

	styleActive = lipgloss.NewStyle().Foreground(colorActiveBlue).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDimGray)
)

// Spinner shows activity while fn runs. fn always runs exactly once, with
// the caller's context, whether or not the indicator could be drawn.
type Spinner interface {
	Do(ctx context.Context, label string, fn func(ctx context.Context)) error
}

// NoSpinner runs fn without any indicator.
type NoSpinner struct{}

func (NoSpinner) Do(ctx context.Context, label string, fn func(ctx context.Context)) error {
	fn(ctx)
	return nil
}

// TerminalSpinner draws an inline spinner on a terminal.
type TerminalSpinner struct {
	out io.Writer
}

func NewTerminalSpinner(out io.Writer) *TerminalSpinner {
	return &TerminalSpinner{out: out}
}

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newSpinnerModel(label string) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleActive)),
		label:   label,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + styleDim.Render(m.label)
}

func (s *TerminalSpinner) Do(ctx context.Context, label string, fn func(ctx context.Context)) error {
	program := tea.NewProgram(newSpinnerModel(label),
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	// No shared context: a failing indicator must not cancel the step.
	var g errgroup.Group

	g.Go(func() error {
		_, err := program.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		defer program.Send(doneMsg{})
		fn(ctx)
		return nil
	})

	return g.Wait()
}
