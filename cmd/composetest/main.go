package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sudocarlos/tailrelay-composetest/internal/app"
	"github.com/sudocarlos/tailrelay-composetest/internal/config"
	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
	"github.com/sudocarlos/tailrelay-composetest/internal/infra"
	"github.com/sudocarlos/tailrelay-composetest/internal/ui"
)

const version = "0.1.0"

// errCancelled is reported when the run is interrupted by a signal.
var errCancelled = errors.New("execution cancelled")

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvLogLevel, err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// preflight warns about a stack file that does not define the service whose
// logs are tailed. docker compose itself reports unreadable files.
func preflight(cfg *domain.Config, logger logrus.FieldLogger) {
	stack, err := config.ReadStackFile(cfg.StackFile)
	if err != nil {
		logger.WithError(err).Warn("could not inspect stack file")
		return
	}
	entry := logger.WithFields(logrus.Fields{
		"stack_file": cfg.StackFile,
		"service":    cfg.Service,
	})
	if !stack.HasService(cfg.Service) {
		entry.Warn("service not defined in stack file")
		return
	}
	if image := stack.Image(cfg.Service); image != "" && image != cfg.Image {
		entry.WithFields(logrus.Fields{
			"stack_image": image,
			"image":       cfg.Image,
		}).Warn("stack file image differs from built image")
	}
}

func run(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	entry := logger.WithField("run_id", uuid.NewString())
	preflight(cfg, entry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var spinner ui.Spinner = ui.NoSpinner{}
	if isTerminal(os.Stderr) {
		spinner = ui.NewTerminalSpinner(os.Stderr)
	}
	console := ui.NewConsole(cmd.OutOrStdout(), isTerminal(os.Stdout))

	sequencer := app.NewSequencer(cfg, infra.NewCommandRunner(entry), console, spinner, entry)
	if _, err := sequencer.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return errCancelled
		}
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "composetest",
		Short: "Build, start and probe the tailrelay compose stack",
		Long: `composetest - end-to-end check of the tailrelay container stack.

It tears down any previous stack, builds the image, starts the stack,
probes its endpoints with curl and prints a pass/fail table before
shutting the stack down again. Configuration comes from the environment
and an optional .env file (STACK_HOST, NETWORK_DOMAIN,
STACK_DEFINITION_FILE, ...).

If the build or startup fails the stack is left running for inspection
unless TEARDOWN_ON_FAILURE=true.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
	cmd.Version = version

	return cmd
}

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var stepErr *app.StepError
	switch {
	case errors.As(err, &stepErr):
		// The failing step already printed its stderr.
	case errors.Is(err, errCancelled):
		fmt.Fprintln(os.Stderr, "\n\nExecution cancelled")
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
