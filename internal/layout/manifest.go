package layout

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional benchmark.yaml inside a benchmark submodule.
// It supplies the header of the generated RESULTS.md. Unknown fields are
// rejected so typos surface instead of silently disappearing.
type Manifest struct {
	Name        string   `yaml:"name"`
	RepoURL     string   `yaml:"repo_url"`
	Description string   `yaml:"description"`
	Languages   []string `yaml:"languages"`
}

// LoadManifest reads and parses a benchmark.yaml. A missing file returns
// (nil, nil); a present but malformed file is an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML with strict field validation.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid benchmark manifest: %w", err)
	}
	return &m, nil
}

// DefaultRepoURL returns the conventional upstream URL for a rule benchmark
// when the manifest does not override it.
func DefaultRepoURL(rule string) string {
	return fmt.Sprintf("https://github.com/CursorCult/_benchmark_%s.git", rule)
}
