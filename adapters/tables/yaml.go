package tables

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"flavorfit/data"
	"flavorfit/domain/core"
	"flavorfit/domain/registry"
)

// DecodeYAML reads a measurement document. Unknown keys are rejected so a
// misspelt slot name cannot silently drop an uncertainty.
func DecodeYAML(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("%w: empty measurement document", core.ErrDataEntry)
		}
		return Document{}, fmt.Errorf("%w: decode yaml: %v", core.ErrDataEntry, err)
	}
	return doc, nil
}

// LoadYAML decodes and builds a registry in one step.
func LoadYAML(r io.Reader) (*registry.Registry, error) {
	doc, err := DecodeYAML(r)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// LoadDefault builds the registry from the embedded dataset.
func LoadDefault() (*registry.Registry, error) {
	return LoadYAML(bytes.NewReader(defaultData()))
}

func defaultData() []byte { return data.Measurements }
