package tables

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flavorfit/domain/registry"
	"flavorfit/internal"
	"flavorfit/ports"
)

// Source loads the measurement registry from a file, or from the embedded
// dataset when Path is empty.
type Source struct {
	Path string
}

var _ ports.MeasurementSourcePort = Source{}

var sourceLog = internal.DefaultLogger.With("Source")

// NewSource creates a source for path ("" selects the embedded dataset).
func NewSource(path string) Source {
	return Source{Path: path}
}

// LoadRegistry reads and validates the whole table. Any defect is fatal.
func (s Source) LoadRegistry(ctx context.Context) (*registry.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	reg, err := Build(doc)
	if err != nil {
		return nil, err
	}

	sourceLog.Info("loaded %d measurements from %s", reg.Len(), s.describe())
	return reg, nil
}

// Document reads the raw table without building the registry.
func (s Source) Document() (Document, error) {
	if s.Path == "" {
		return DecodeYAML(bytes.NewReader(defaultData()))
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		f, err := os.Open(s.Path)
		if err != nil {
			return Document{}, fmt.Errorf("failed to open measurement file: %w", err)
		}
		defer f.Close()
		return DecodeYAML(f)
	case ".xlsx", ".csv":
		return NewTableReader(s.Path).Read()
	default:
		return Document{}, fmt.Errorf("unsupported measurement file: %s", s.Path)
	}
}

func (s Source) describe() string {
	if s.Path == "" {
		return "embedded dataset"
	}
	return s.Path
}
