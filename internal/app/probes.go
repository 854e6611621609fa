package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

// Prober checks a list of endpoints and reports one outcome per spec.
type Prober interface {
	RunProbes(ctx context.Context, specs []domain.ProbeSpec, perProbeTimeout time.Duration) []domain.ProbeOutcome
}

type ProbeRunner struct {
	executor Executor
	logger   logrus.FieldLogger
}

func NewProbeRunner(executor Executor, logger logrus.FieldLogger) *ProbeRunner {
	return &ProbeRunner{
		executor: executor,
		logger:   logger,
	}
}

// RunProbes runs one curl per spec, in order. A failing probe never stops
// the remaining ones. Once ctx is done no further curl is started; the
// remaining specs are recorded as failures so every spec keeps its outcome.
func (p *ProbeRunner) RunProbes(ctx context.Context, specs []domain.ProbeSpec, perProbeTimeout time.Duration) []domain.ProbeOutcome {
	outcomes := make([]domain.ProbeOutcome, 0, len(specs))

	for _, spec := range specs {
		select {
		case <-ctx.Done():
			outcomes = append(outcomes, domain.OutcomeFor(spec, domain.CommandResult{ExitCode: domain.InterruptedExitCode}))
			continue
		default:
		}

		result := p.executor.Run(ctx, ProbeCommand(spec.Target), perProbeTimeout)
		outcome := domain.OutcomeFor(spec, result)

		p.logger.WithFields(logrus.Fields{
			"target":    spec.Target,
			"status":    outcome.Status,
			"exit_code": result.ExitCode,
		}).Debug("probe finished")

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func ProbeCommand(target string) domain.Command {
	return domain.NewCommand("curl", "-sSL", target)
}

// DefaultProbes returns the fixed endpoint list for the stack under test.
func DefaultProbes(cfg *domain.Config) []domain.ProbeSpec {
	host := cfg.Host
	return []domain.ProbeSpec{
		{Target: fmt.Sprintf("http://%s:8080", host), Description: "Health / 8080"},
		{Target: fmt.Sprintf("http://%s:8081", host), Description: "Health / 8081"},
		{Target: fmt.Sprintf("https://%s.%s:8443", host, cfg.Domain), Description: "TLS / 8443"},
		{Target: fmt.Sprintf("http://%s:9002/healthz", host), Description: "Health endpoint / 9002"},
		{Target: fmt.Sprintf("http://%s:9002/metrics", host), Description: "Metrics endpoint / 9002"},
	}
}
