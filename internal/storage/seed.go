package storage

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/notedeck/internal/models"
)

//go:embed seed.yaml
var defaultSeed []byte

// ParseSeed decodes a YAML list of fixture notes.
func ParseSeed(data []byte) ([]models.Note, error) {
	var notes []models.Note
	if err := yaml.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("storage: parse seed: %w", err)
	}
	return notes, nil
}

// DefaultSeed returns the built-in fixture: three notes, the third archived.
func DefaultSeed() []models.Note {
	notes, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(err)
	}
	return notes
}

// LoadSeedFile reads fixture notes from a YAML file, or returns the built-in
// fixture when path is empty.
func LoadSeedFile(path string) ([]models.Note, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}
