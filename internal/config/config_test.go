package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("3.12")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 3, Minor: 12}, v)

	_, err = ParseVersion("3")
	assert.Error(t, err)
	_, err = ParseVersion("latest")
	assert.Error(t, err)
}

func TestVersionAtLeast(t *testing.T) {
	v312 := Version{Major: 3, Minor: 12}
	assert.True(t, v312.AtLeast(Version{Major: 3, Minor: 12}))
	assert.True(t, v312.AtLeast(Version{Major: 3, Minor: 11}))
	assert.False(t, v312.AtLeast(Version{Major: 3, Minor: 13}))
	assert.True(t, Version{Major: 4}.AtLeast(v312))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stilt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
python_version: "3.11"
strict_literal_flags: false
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 3, Minor: 11}, cfg.PythonVersion)
	assert.False(t, cfg.StrictLiteralFlags)
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stilt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`python_version: "3.10"`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	// unset keys keep their defaults
	assert.True(t, cfg.StrictLiteralFlags)
	assert.Equal(t, Version{Major: 3, Minor: 10}, cfg.PythonVersion)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
