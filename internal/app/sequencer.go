package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
	"github.com/sudocarlos/tailrelay-composetest/internal/ui"
)

// StepError reports a fatal pipeline step. The stack may still be running.
type StepError struct {
	Step   string
	Result domain.CommandResult
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Step, e.Result.ExitCode)
}

// Sequencer runs the end-to-end pipeline once: teardown, build, start,
// settle, diagnostics, probes, report, final teardown.
type Sequencer struct {
	cfg       *domain.Config
	validator *domain.ConfigValidator
	stack     Stack
	prober    Prober
	probes    []domain.ProbeSpec
	report    ui.Report
	console   *ui.Console
	spinner   ui.Spinner
	logger    logrus.FieldLogger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewSequencer(cfg *domain.Config, executor Executor, console *ui.Console, spinner ui.Spinner, logger logrus.FieldLogger) *Sequencer {
	if spinner == nil {
		spinner = ui.NoSpinner{}
	}
	return &Sequencer{
		cfg:       cfg,
		validator: domain.NewConfigValidator(),
		stack:     NewStackController(executor, cfg),
		prober:    NewProbeRunner(executor, logger),
		probes:    DefaultProbes(cfg),
		report:    getReport(cfg),
		console:   console,
		spinner:   spinner,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Run executes every stage exactly once and returns the probe outcomes.
// A *StepError is returned when Build or StartUp fails; later stages,
// including the final teardown, are skipped.
func (s *Sequencer) Run(ctx context.Context) ([]domain.ProbeOutcome, error) {
	if err := s.validator.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"stack_file": s.cfg.StackFile,
		"image":      s.cfg.Image,
		"host":       s.cfg.Host,
	}).Info("starting compose test")

	res := s.stack.Teardown(ctx)
	if err := s.check(ctx, StepTeardown, res, "docker compose down failed – continuing anyway"); err != nil {
		return nil, err
	}

	s.console.Step("Building image…")
	res = s.withSpinner(ctx, "Building image", s.stack.Build)
	if err := s.check(ctx, StepBuild, res, "Build failed"); err != nil {
		return nil, err
	}
	s.console.Text(strings.TrimSpace(res.Stdout))

	s.console.Step("Starting containers…")
	res = s.withSpinner(ctx, "Starting containers", s.stack.StartUp)
	if err := s.check(ctx, StepStartUp, res, "docker compose up failed"); err != nil {
		return nil, err
	}

	s.console.Step("Waiting for container to start…")
	if err := s.settle(ctx); err != nil {
		return nil, err
	}

	if err := s.diagnostics(ctx); err != nil {
		return nil, err
	}

	outcomes := s.prober.RunProbes(ctx, s.probes, s.cfg.ProbeTimeout)
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	s.logProbeSummary(outcomes)

	s.console.Section("Curl test results:", s.report.Render(outcomes))

	s.console.Step("Shutting down containers…")
	res = s.stack.Teardown(ctx)
	if err := s.check(ctx, StepFinalTeardown, res, "docker compose down failed"); err != nil {
		return outcomes, err
	}

	s.console.Success("All done!")
	return outcomes, nil
}

// check applies the step's failure policy to res. Tolerated failures are
// reported and swallowed; fatal ones become a *StepError.
func (s *Sequencer) check(ctx context.Context, step domain.Step, res domain.CommandResult, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Success() {
		s.logger.WithFields(logrus.Fields{"step": step.Name, "duration": res.Duration}).Debug("step succeeded")
		return nil
	}

	entry := s.logger.WithFields(logrus.Fields{
		"step":      step.Name,
		"exit_code": res.ExitCode,
		"timed_out": res.TimedOut,
		"stderr":    strings.TrimSpace(res.Stderr),
	})

	if step.Criticality == domain.Tolerated {
		entry.Warn("step failed")
		s.console.Warn("%s", message)
		return nil
	}

	entry.Error("step failed")
	s.console.Fatal("%s:\n%s", message, res.Stderr)
	s.afterFatal(ctx)
	return &StepError{Step: step.Name, Result: res}
}

// afterFatal leaves the stack running for inspection unless the
// configuration asks for a teardown.
func (s *Sequencer) afterFatal(ctx context.Context) {
	if !s.cfg.TeardownOnFailure {
		s.console.Text(fmt.Sprintf("Stack left running for inspection; run `docker compose -f %s down` when finished.", s.cfg.StackFile))
		return
	}

	s.console.Step("Shutting down containers after failure…")
	if res := s.stack.Teardown(ctx); !res.Success() {
		s.logger.WithFields(logrus.Fields{
			"step":      StepFinalTeardown.Name,
			"exit_code": res.ExitCode,
			"stderr":    strings.TrimSpace(res.Stderr),
		}).Warn("step failed")
		s.console.Warn("docker compose down failed")
	}
}

// diagnostics dumps the log tail and listening sockets. Both steps are
// tolerated, so only cancellation is returned.
func (s *Sequencer) diagnostics(ctx context.Context) error {
	title := fmt.Sprintf("Container logs tail (last %d lines):", s.cfg.LogTailLines)
	res := s.stack.LogsTail(ctx, s.cfg.Service)
	s.console.Section(title, res.Stdout)
	if err := s.check(ctx, StepLogs, res, "could not read container logs"); err != nil {
		return err
	}

	res = s.stack.ListeningSockets(ctx)
	s.console.Section("Listening sockets:", res.Stdout)
	return s.check(ctx, StepSockets, res, "could not list listening sockets")
}

func (s *Sequencer) settle(ctx context.Context) error {
	var err error
	spinErr := s.spinner.Do(ctx, "Waiting for containers", func(ctx context.Context) {
		err = s.sleep(ctx, s.cfg.SettleDelay)
	})
	if spinErr != nil {
		s.logger.WithError(spinErr).Debug("spinner stopped")
	}
	return err
}

func (s *Sequencer) withSpinner(ctx context.Context, label string, fn func(context.Context) domain.CommandResult) domain.CommandResult {
	var res domain.CommandResult
	if err := s.spinner.Do(ctx, label, func(ctx context.Context) { res = fn(ctx) }); err != nil {
		s.logger.WithError(err).Debug("spinner stopped")
	}
	return res
}

func (s *Sequencer) logProbeSummary(outcomes []domain.ProbeOutcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Status != domain.StatusSuccess {
			failed++
		}
	}
	entry := s.logger.WithFields(logrus.Fields{"probes": len(outcomes), "failed": failed})
	if failed > 0 {
		entry.Warn("some probes failed")
		return
	}
	entry.Info("all probes succeeded")
}

func getReport(cfg *domain.Config) ui.Report {
	switch cfg.Format {
	case domain.FormatJSON:
		return ui.NewJSONReport()
	default:
		return ui.NewTableReport(true)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
