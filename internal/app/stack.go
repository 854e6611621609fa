package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

// Pipeline steps and their failure policy.
var (
	StepTeardown      = domain.Step{Name: "teardown", Criticality: domain.Tolerated, Timeout: 2 * time.Minute}
	StepBuild         = domain.Step{Name: "build", Criticality: domain.Fatal, Timeout: 20 * time.Minute}
	StepStartUp       = domain.Step{Name: "startup", Criticality: domain.Fatal, Timeout: 5 * time.Minute}
	StepLogs          = domain.Step{Name: "logs", Criticality: domain.Tolerated, Timeout: 30 * time.Second}
	StepSockets       = domain.Step{Name: "sockets", Criticality: domain.Tolerated, Timeout: 30 * time.Second}
	StepFinalTeardown = domain.Step{Name: "final-teardown", Criticality: domain.Tolerated, Timeout: 2 * time.Minute}
)

// Stack issues lifecycle commands against the container stack.
type Stack interface {
	Teardown(ctx context.Context) domain.CommandResult
	Build(ctx context.Context) domain.CommandResult
	StartUp(ctx context.Context) domain.CommandResult
	LogsTail(ctx context.Context, service string) domain.CommandResult
	ListeningSockets(ctx context.Context) domain.CommandResult
}

// StackController drives docker compose and docker buildx for the stack
// described by cfg.StackFile.
type StackController struct {
	executor Executor
	cfg      *domain.Config
}

func NewStackController(executor Executor, cfg *domain.Config) *StackController {
	return &StackController{
		executor: executor,
		cfg:      cfg,
	}
}

func (s *StackController) compose(args ...string) domain.Command {
	return domain.NewCommand("docker", append([]string{"compose", "-f", s.cfg.StackFile}, args...)...)
}

func (s *StackController) Teardown(ctx context.Context) domain.CommandResult {
	return s.executor.Run(ctx, s.compose("down"), StepTeardown.Timeout)
}

func (s *StackController) Build(ctx context.Context) domain.CommandResult {
	cmd := domain.NewCommand("docker", "buildx", "build", "-t", s.cfg.Image, "--load", s.cfg.BuildContext)
	return s.executor.Run(ctx, cmd, StepBuild.Timeout)
}

func (s *StackController) StartUp(ctx context.Context) domain.CommandResult {
	return s.executor.Run(ctx, s.compose("up", "-d"), StepStartUp.Timeout)
}

func (s *StackController) LogsTail(ctx context.Context, service string) domain.CommandResult {
	cmd := s.compose("logs", "--tail", strconv.Itoa(s.cfg.LogTailLines), service)
	return s.executor.Run(ctx, cmd, StepLogs.Timeout)
}

// ListeningSockets lists the container's sockets and keeps only the lines in
// LISTEN state.
func (s *StackController) ListeningSockets(ctx context.Context) domain.CommandResult {
	cmd := domain.NewCommand("docker", "exec", s.cfg.Container, "netstat", "-tulnp")
	result := s.executor.Run(ctx, cmd, StepSockets.Timeout)
	result.Stdout = filterListening(result.Stdout)
	return result
}

func filterListening(netstat string) string {
	var b strings.Builder
	for _, line := range strings.Split(netstat, "\n") {
		if strings.Contains(line, "LISTEN") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
