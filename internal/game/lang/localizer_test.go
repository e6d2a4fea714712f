package lang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalize(t *testing.T) {
	l := New(map[string]string{
		"greeting":    "Hello, {name}!",
		"plain":       "No placeholders here",
		"multi":       "{points} ({die})",
		"repeated":    "{x} and {x}",
	})

	assert.Equal(t, "Hello, Mara!", l.Localize("greeting", map[string]string{"name": "Mara"}))
	assert.Equal(t, "No placeholders here", l.Localize("plain", nil))
	assert.Equal(t, "7 (d10)", l.Localize("multi", map[string]string{"points": "7", "die": "d10"}))
	assert.Equal(t, "a and a", l.Localize("repeated", map[string]string{"x": "a"}))
}

func TestLocalizeUnknownKeyDegradesToKey(t *testing.T) {
	l := New(nil)
	assert.Equal(t, "missing.key", l.Localize("missing.key", nil))
}

func TestLocalizeMissingSubstitutionLeavesPlaceholder(t *testing.T) {
	l := New(map[string]string{"k": "value is {v}"})
	assert.Equal(t, "value is {v}", l.Localize("k", nil))
}

func TestNewCopiesTable(t *testing.T) {
	table := map[string]string{"k": "original"}
	l := New(table)
	table["k"] = "mutated"
	assert.Equal(t, "original", l.Localize("k", nil))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.yaml")
	err := os.WriteFile(path, []byte(`
advancement.hitPoints.title: "Hit Points"
advancement.scaleValue.summary: "{identifier}: {value}"
`), 0644)
	require.NoError(t, err)

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Hit Points", l.Localize("advancement.hitPoints.title", nil))
	assert.Equal(t, "fury: 1d6", l.Localize("advancement.scaleValue.summary", map[string]string{
		"identifier": "fury",
		"value":      "1d6",
	}))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/en.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: [nested, list]"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
