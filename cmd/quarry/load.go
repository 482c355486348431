package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// documentFile is the on-disk form of a document. JSON files parse with the
// same decoder since JSON is a subset of YAML.
type documentFile struct {
	ID        string         `yaml:"id"`
	SourceID  string         `yaml:"source_id"`
	Content   string         `yaml:"content"`
	Metadata  map[string]any `yaml:"metadata"`
	Timestamp string         `yaml:"timestamp"`
}

// readDocuments parses path. YAML and JSON files hold a list of documents;
// any other file becomes a single document titled after its name.
func readDocuments(path string) ([]*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		content := strings.TrimSpace(string(data))
		if content == "" {
			return nil, fmt.Errorf("%s: %w", path, core.ErrEmptyContent)
		}
		return []*core.Document{{
			Content:   content,
			Metadata:  map[string]any{"title": filepath.Base(path), "source": path},
			Timestamp: time.Now().UTC(),
		}}, nil
	}

	var files []documentFile
	if err := yaml.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	docs := make([]*core.Document, 0, len(files))
	for i, f := range files {
		doc := &core.Document{
			ID:       f.ID,
			SourceID: f.SourceID,
			Content:  f.Content,
			Metadata: f.Metadata,
		}
		if f.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, f.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
			}
			doc.Timestamp = ts.UTC()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one document file is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var docs []*core.Document
	for _, path := range c.Args().Slice() {
		fileDocs, err := readDocuments(path)
		if err != nil {
			return fmt.Errorf("failed to read documents: %w", err)
		}
		docs = append(docs, fileDocs...)
	}

	engine, err := quarry.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	ctx := context.Background()
	stored, err := engine.AddDocuments(ctx, docs...)
	if err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	total, err := engine.Repository().CountDocuments(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Loaded %d documents (%d in store)\n", len(stored), total)
	return nil
}
