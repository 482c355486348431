package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/warm"
	"github.com/urfave/cli/v2"
)

func warmCommand(c *cli.Context) error {
	warmConfig := &warm.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if err := warmConfig.Validate(); err != nil {
		return err
	}
	var filters map[string]any
	if raw := c.StringSlice("filter"); len(raw) > 0 {
		var err error
		if filters, err = parseFilters(raw); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := quarry.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Store.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := engine.Warm(ctx, warmConfig, c.App.ErrWriter, filters); err != nil {
		return fmt.Errorf("warming failed: %w", err)
	}
	return nil
}
