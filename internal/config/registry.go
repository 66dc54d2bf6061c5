package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

// registryFile is the on-disk layout of an approved-course registry. Entry
// order is match priority.
type registryFile struct {
	Courses []registryEntry `yaml:"courses" validate:"required,min=1,dive"`
}

type registryEntry struct {
	Mode      string `yaml:"mode" validate:"required,oneof=exact normalized pattern"`
	Match     string `yaml:"match" validate:"required"`
	Code      string `yaml:"code" validate:"required"`
	Category  string `yaml:"category"`
	Canonical string `yaml:"canonical"`
}

// LoadCourseRegistry reads a YAML registry. An empty path yields the built-in
// registry.
func LoadCourseRegistry(path string) (*verifier.Registry, error) {
	if path == "" {
		return verifier.DefaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read course registry %s: %w", path, err)
	}

	registry, err := ParseCourseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("course registry %s: %w", path, err)
	}
	return registry, nil
}

func ParseCourseRegistry(data []byte) (*verifier.Registry, error) {
	var file registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}

	entries := make([]verifier.CourseEntry, 0, len(file.Courses))
	for i, c := range file.Courses {
		entry, err := verifier.NewCourseEntry(verifier.MatchMode(c.Mode), c.Match, c.Code, c.Category, c.Canonical)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	registry := verifier.NewRegistry(entries...)
	if err := registry.CheckCanonical(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	return registry, nil
}
