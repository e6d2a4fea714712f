package compendium

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hearthvtt/levelforge/internal/game/advancement"
)

// LoadDir reads all *.yaml and *.yml files from dir, parses each as a
// compendium entry, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid entries or the first encountered error.
func LoadDir(dir string) ([]*advancement.ItemData, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]*advancement.ItemData, 0, len(files))
	for _, path := range files {
		entry, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LoadFile reads one YAML file as a compendium entry and validates it.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a valid entry or a non-nil error naming the file.
func LoadFile(path string) (*advancement.ItemData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var entry advancement.ItemData
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing compendium file %s: %w", path, err)
	}
	if err := ValidateEntry(&entry); err != nil {
		return nil, fmt.Errorf("invalid entry in %s: %w", path, err)
	}
	return &entry, nil
}

// LoadRegistry loads every entry from the given directories into a fresh
// Registry.
//
// Precondition: each dir must be a readable directory path.
// Postcondition: Returns a Registry holding every entry, or the first error.
func LoadRegistry(dirs ...string) (*Registry, error) {
	registry := NewRegistry()
	for _, dir := range dirs {
		entries, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if err := registry.Register(entry); err != nil {
				return nil, err
			}
		}
	}
	return registry, nil
}

// yamlFiles returns the paths of all YAML files directly under dir.
func yamlFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}
	var files []string
	for _, e := range dirEntries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
