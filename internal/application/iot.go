package application

import (
	"context"

	"home-voice/internal/domain"
)

// CommandExecutor performs a resolved command. Commands with no physical
// mapping are no-ops, not errors.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd domain.Command) error
}

// CommandCatalog loads the supported command table once at startup.
type CommandCatalog interface {
	Load() (domain.CommandMap, error)
}

// NoopExecutor accepts every command without acting on it.
type NoopExecutor struct{}

func (NoopExecutor) Execute(_ context.Context, _ domain.Command) error {
	return nil
}
