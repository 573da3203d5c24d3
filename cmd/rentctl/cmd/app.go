package cmd

import (
	"context"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
)

// withApp loads configuration, opens the application and closes it after fn.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
