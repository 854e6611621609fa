package app

import (
	"context"
	"time"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

// Executor runs a single external command. Implementations must always
// return a result; timeouts and start failures are encoded in the exit code.
type Executor interface {
	Run(ctx context.Context, cmd domain.Command, timeout time.Duration) domain.CommandResult
}
