// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "quarry",
		Usage: "Hybrid retrieval and question answering over a document store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load documents from YAML, JSON or text files into the store",
				ArgsUsage: "FILE...",
				Action:    loadCommand,
				Flags:     storeFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the stored documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(append(storeFlags(), providerFlags()...),
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "Tenant the query is issued for",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of contexts to retrieve (0 uses the configured value)",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata filter as key=value; dotted keys address nested fields",
					},
					&cli.StringFlag{
						Name:  "citation-style",
						Usage: "Citation style (NUMBERED, BRACKETED, FOOTNOTE, INLINE)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full pipeline response as JSON",
					},
				),
			},
			{
				Name:   "warm",
				Usage:  "Embed every stored document to fill the embedding cache",
				Action: warmCommand,
				Flags: append(append(storeFlags(), providerFlags()...),
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata filter as key=value; only matching documents are embedded",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to embed in each request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:      "analyze",
				Usage:     "Validate, parse and classify a query without retrieval",
				ArgsUsage: "QUERY",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "Tenant the query is issued for",
					},
				},
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (overrides store.path)",
		},
	}
}

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "AI provider (openai, ollama)",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Embedding and generation service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
		},
		&cli.StringFlag{
			Name:  "redis",
			Usage: "Redis address for the embedding cache; enables caching",
		},
	}
}

// loadConfig reads --config, or the defaults, and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
		cfg.Store.InMemory = false
	}
	if provider := c.String("provider"); provider != "" {
		cfg.AI.Provider = provider
	}
	if host := c.String("host"); host != "" {
		ai.WithHost(host)(&cfg.AI)
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}
	if model := c.String("generation-model"); model != "" {
		cfg.AI.GenerationModel = model
	}
	if addr := c.String("redis"); addr != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
