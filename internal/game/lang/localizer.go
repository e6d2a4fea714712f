// Package lang provides the localization table for human-facing text.
// A Localizer is built once at startup from a YAML strings file and is
// immutable afterwards; nothing in the module mutates it implicitly.
package lang

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Localizer resolves message keys to display strings with {placeholder}
// substitution. Safe for concurrent use after construction.
type Localizer struct {
	strings map[string]string
}

// New creates a Localizer over the given key-to-template table.
//
// Postcondition: the Localizer owns a copy of the table.
func New(table map[string]string) *Localizer {
	owned := make(map[string]string, len(table))
	for k, v := range table {
		owned[k] = v
	}
	return &Localizer{strings: owned}
}

// Load reads a YAML strings file mapping keys to templates.
//
// Precondition: path must be a readable YAML file of string-to-string pairs.
// Postcondition: Returns a ready Localizer or a non-nil error.
func Load(path string) (*Localizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strings file %q: %w", path, err)
	}
	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing strings file %q: %w", path, err)
	}
	return New(table), nil
}

// Localize resolves key and substitutes {name} placeholders from subs.
// An unknown key degrades to the key itself so display code never fails.
//
// Postcondition: Returns a non-empty string for any non-empty key.
func (l *Localizer) Localize(key string, subs map[string]string) string {
	template, ok := l.strings[key]
	if !ok {
		return key
	}
	if len(subs) == 0 {
		return template
	}
	pairs := make([]string, 0, len(subs)*2)
	for name, value := range subs {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
