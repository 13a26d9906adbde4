// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sub2md/pkg/types"
)

// Export is the document written by ExportJSON and ExportYAML.
type Export struct {
	Publication string       `json:"publication" yaml:"publication"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Posts       []types.Post `json:"posts" yaml:"posts"`
}

// ExportJSON writes every post to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, publication, path string) error {
	doc, err := s.export(ctx, publication)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// ExportYAML writes every post to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, publication, path string) error {
	doc, err := s.export(ctx, publication)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeFile(path, data)
}

// LoadExport reads a JSON export written by ExportJSON.
func LoadExport(path string) (Export, error) {
	var doc Export
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("reading export: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing export %s: %w", path, err)
	}
	return doc, nil
}

func (s *Store) export(ctx context.Context, publication string) (Export, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	return Export{
		Publication: publication,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Posts:       posts,
	}, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
