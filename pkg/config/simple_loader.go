package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envRef matches ${NAME} placeholders. Bare $NAME is left alone so YAML
// values containing dollar signs survive.
var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// LoadFile loads a Config from a YAML file, applying defaults first and
// validating the result. A missing file is not an error: the defaults are
// returned unchanged so the CLI works without any configuration.
func LoadFile(filePath string) (*Config, error) {
	cfg := NewConfig()
	if filePath == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filePath, err)
	}
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filePath, err)
	}
	return cfg, nil
}

// decode expands ${ENV} references and unmarshals the YAML over dst, so
// keys absent from the file keep whatever dst already holds.
func decode(raw []byte, dst interface{}) error {
	expanded := envRef.ReplaceAllFunc(raw, func(ref []byte) []byte {
		name := string(ref[2 : len(ref)-1])
		return []byte(os.Getenv(name))
	})
	return yaml.Unmarshal(expanded, dst)
}

// Save writes the configuration as YAML.
func Save(filePath string, config interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", filePath, err)
	}
	return nil
}
