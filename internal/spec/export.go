package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	jsonIndentPrefix = ""
	jsonIndent       = "  "
	yamlIndent       = 2
	filePerm         = 0644

	errorMarshalJSON   = "failed to marshal JSON: %w"
	errorEncodeYAML    = "failed to encode YAML: %w"
	errorWriteJSONFile = "failed to write JSON file: %w"
	errorWriteYAMLFile = "failed to write YAML file: %w"
)

// Export is the serialized form of a parsed document: the summary, the flat
// endpoint list and the tag groups.
type Export struct {
	Info      Info       `json:"info" yaml:"info"`
	Dialect   string     `json:"dialect" yaml:"dialect"`
	Servers   []Server   `json:"servers" yaml:"servers"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
	Groups    *TagGroups `json:"groups" yaml:"groups"`
}

// NewExport bundles p with its tag groups.
func NewExport(p *ParsedSpec) Export {
	return Export{
		Info:      p.Info,
		Dialect:   p.Dialect.String(),
		Servers:   p.Servers,
		Endpoints: p.Endpoints,
		Groups:    GroupByTag(p.Endpoints),
	}
}

// EncodeYAML writes data as YAML to w.
func EncodeYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf(errorEncodeYAML, err)
	}
	// Close flushes buffered output.
	return encoder.Close()
}

// WriteYAML writes any data to a YAML file
func WriteYAML(data any, filename string) error {
	err := os.Remove(filename)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf(errorWriteYAMLFile, err)
	}
	defer file.Close()

	return EncodeYAML(file, data)
}

// WriteJSON writes any data to an indented JSON file
func WriteJSON(data any, filename string) error {
	jsonData, err := json.MarshalIndent(data, jsonIndentPrefix, jsonIndent)
	if err != nil {
		return fmt.Errorf(errorMarshalJSON, err)
	}
	if err := os.WriteFile(filename, jsonData, filePerm); err != nil {
		return fmt.Errorf(errorWriteJSONFile, err)
	}
	return nil
}

// WriteFile picks JSON or YAML from the file extension.
func WriteFile(data any, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return WriteJSON(data, filename)
	default:
		return WriteYAML(data, filename)
	}
}
