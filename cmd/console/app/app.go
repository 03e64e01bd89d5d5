package app

import (
	"context"
	"log/slog"
)

// Run runs a console session with the given configuration.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	return NewOrchestrator(config, logger).Run(ctx)
}
