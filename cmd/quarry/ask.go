package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/pipeline"
	"github.com/poiesic/quarry/response"
	"github.com/urfave/cli/v2"
)

func askCommand(c *cli.Context) error {
	q := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(q) == "" {
		return errors.New("a question is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if style := c.String("citation-style"); style != "" {
		cfg.Response.CitationStyle = response.CitationStyle(strings.ToUpper(style))
		if err := cfg.Response.Validate(); err != nil {
			return err
		}
	}

	opts := []pipeline.RequestOption{pipeline.WithTenant(c.String("tenant"))}
	if k := c.Int("k"); k > 0 {
		opts = append(opts, pipeline.WithK(k))
	}
	if raw := c.StringSlice("filter"); len(raw) > 0 {
		filters, err := parseFilters(raw)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithFilters(filters))
	}

	engine, err := quarry.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp, err := engine.Ask(ctx, q, opts...)
	if err != nil && resp == nil {
		return err
	}
	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, resp); err != nil {
			return err
		}
	} else if resp.Success {
		fmt.Fprintln(c.App.Writer, resp.Response.ResponseText)
	}
	if !resp.Success {
		return fmt.Errorf("query failed: %s", resp.Error)
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	q := strings.Join(c.Args().Slice(), " ")
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	analysis, err := quarry.Analyze(&cfg.Validator, q, c.String("tenant"))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, analysis)
}

// parseFilters turns key=value pairs into a filter map. Values stay strings.
func parseFilters(raw []string) (map[string]any, error) {
	filters := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", kv)
		}
		filters[key] = value
	}
	return filters, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
