package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
	"github.com/sudocarlos/tailrelay-composetest/internal/ui"
)

type call struct {
	argv    []string
	timeout time.Duration
}

// fakeExecutor records every command and answers from a table keyed by the
// space-joined argv prefix.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]domain.CommandResult
	hooks     map[string]func()
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		responses: map[string]domain.CommandResult{},
		hooks:     map[string]func(){},
	}
}

// after registers fn to run once a command with the given prefix was called.
func (f *fakeExecutor) after(prefix string, fn func()) *fakeExecutor {
	f.hooks[prefix] = fn
	return f
}

func (f *fakeExecutor) on(prefix string, res domain.CommandResult) *fakeExecutor {
	f.responses[prefix] = res
	return f
}

func (f *fakeExecutor) Run(ctx context.Context, cmd domain.Command, timeout time.Duration) domain.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{argv: cmd.Argv(), timeout: timeout})
	joined := strings.Join(cmd.Argv(), " ")

	best := ""
	for prefix := range f.responses {
		if strings.HasPrefix(joined, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	res := domain.CommandResult{}
	if best != "" {
		res = f.responses[best]
	}
	res.Command = cmd

	for prefix, fn := range f.hooks {
		if strings.HasPrefix(joined, prefix) {
			fn()
		}
	}
	return res
}

func (f *fakeExecutor) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c.argv, " "))
	}
	return out
}

func (f *fakeExecutor) count(prefix string) int {
	n := 0
	for _, c := range f.commands() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func testConfig() *domain.Config {
	return &domain.Config{
		Host:         "tailrelay-dev",
		Domain:       "my-tailnet.ts.net",
		StackFile:    "./compose-test.yml",
		Service:      "tailrelay-test",
		Container:    "tailrelay-test",
		Image:        "sudocarlos/tailrelay:dev",
		BuildContext: ".",
		SettleDelay:  3 * time.Second,
		ProbeTimeout: 10 * time.Second,
		LogTailLines: 10,
		Format:       domain.FormatTable,
		LogLevel:     "info",
	}
}

type harness struct {
	seq   *Sequencer
	exec  *fakeExecutor
	out   *bytes.Buffer
	hook  *test.Hook
	slept []time.Duration
}

func newHarness(t *testing.T, cfg *domain.Config, exec *fakeExecutor) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{exec: exec, out: &bytes.Buffer{}, hook: hook}
	h.seq = NewSequencer(cfg, exec, ui.NewConsole(h.out, false), ui.NoSpinner{}, logger)
	h.seq.report = ui.NewTableReport(false)
	h.seq.sleep = func(ctx context.Context, d time.Duration) error {
		h.slept = append(h.slept, d)
		return ctx.Err()
	}
	return h
}

func (h *harness) warnings() []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}
