package domain

import (
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

type ProbeStatus string
type Criticality string
type ReportFormat string

const (
	StatusSuccess ProbeStatus = "success"
	StatusFailure ProbeStatus = "failure"
)

const (
	Fatal     Criticality = "fatal"
	Tolerated Criticality = "tolerated"
)

const (
	FormatTable ReportFormat = "table"
	FormatJSON  ReportFormat = "json"
)

// TimeoutExitCode is reported for commands killed after their timeout elapsed.
const TimeoutExitCode = 124

// InterruptedExitCode is reported for commands stopped, or never started,
// because the run was cancelled.
const InterruptedExitCode = 130

// Command is an external program invocation. Arguments are passed to the
// program as-is; nothing is interpreted by a shell.
type Command struct {
	Name string
	Args []string
}

func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Argv returns the full argument vector, program name first.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	quoted := make([]string, 0, len(c.Args)+1)
	for _, a := range c.Argv() {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}

type CommandResult struct {
	Command   Command
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

type ProbeSpec struct {
	Target      string
	Description string
}

type ProbeOutcome struct {
	Description string
	Target      string
	Status      ProbeStatus
	ExitCode    int
}

// OutcomeFor classifies a probe by exit code only.
func OutcomeFor(spec ProbeSpec, result CommandResult) ProbeOutcome {
	status := StatusFailure
	if result.ExitCode == 0 {
		status = StatusSuccess
	}
	return ProbeOutcome{
		Description: spec.Description,
		Target:      spec.Target,
		Status:      status,
		ExitCode:    result.ExitCode,
	}
}

// Step describes one pipeline stage and how its failure is treated.
type Step struct {
	Name        string
	Criticality Criticality
	Timeout     time.Duration
}

type Config struct {
	Host              string
	Domain            string
	StackFile         string
	Service           string
	Container         string
	Image             string
	BuildContext      string
	SettleDelay       time.Duration
	ProbeTimeout      time.Duration
	LogTailLines      int
	TeardownOnFailure bool
	Format            ReportFormat
	LogLevel          string
}
