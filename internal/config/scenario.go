package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
)

//go:embed scenario.yaml
var defaultScenario []byte

//go:embed templates.yaml
var defaultTemplates []byte

// DefaultScenario returns the built-in scenario file
func DefaultScenario() []byte {
	return append([]byte(nil), defaultScenario...)
}

// DefaultTemplates returns the built-in template list
func DefaultTemplates() []byte {
	return append([]byte(nil), defaultTemplates...)
}

// ScenarioPath returns ScenarioFile when it names an existing file. ok is
// false when the built-in scenario applies.
func (c *Config) ScenarioPath() (path string, ok bool) {
	return existing(c.ScenarioFile)
}

// TemplatesPath returns TemplatesFile when it names an existing file. ok is
// false when the built-in template list applies.
func (c *Config) TemplatesPath() (path string, ok bool) {
	return existing(c.TemplatesFile)
}

// existing treats errors other than "not found" as present so the loader
// reports them.
func existing(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	return path, true
}
