package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/flock/pkg/jsonschema"
)

//go:embed flock.schema.json
var schemaJSON string

var documentSchema = jsonschema.MustCompile("flock.schema.json", schemaJSON)

// Schema returns the JSON Schema configuration documents are checked against.
func Schema() string {
	return schemaJSON
}

// LoadConfig reads, checks and decodes a YAML or JSON configuration file.
// Defaults are not applied.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration document. JSON is accepted as YAML.
//
// $VAR and ${VAR} references are expanded from the environment first, then
// the document is checked against the embedded schema. Schema violations are
// returned as *ValidationErrors.
func ParseConfig(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var doc interface{}
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return &Config{}, nil
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not representable as JSON: %w", err)
	}

	if violations := documentSchema.ValidateJSON(jsonDoc); len(violations) > 0 {
		errs := &ValidationErrors{}
		for _, v := range violations {
			errs.Add("", v.Error())
		}
		return nil, errs
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &cfg, nil
}
