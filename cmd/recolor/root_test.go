package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/recolor/pkg/mapping"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRootCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "colors.map", "BAC3FF BFD8C0\n")
	cssPath := writeFile(t, dir, "src/app.css", "a { color: #bac3ff; }\n")

	require.NoError(t, execute(t, mapPath, dir))

	content, err := os.ReadFile(cssPath)
	require.NoError(t, err)
	assert.Equal(t, "a { color: #BFD8C0; }\n", string(content))
}

func TestRootCommand_MalformedMapTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "colors.map", "ZZZZZZ 112233\n")
	cssPath := writeFile(t, dir, "app.css", "color: #BAC3FF;")

	err := execute(t, mapPath, dir)
	require.Error(t, err)

	var formatErr *mapping.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 1, formatErr.Line)

	content, readErr := os.ReadFile(cssPath)
	require.NoError(t, readErr)
	assert.Equal(t, "color: #BAC3FF;", string(content), "fatal map errors abort before traversal")
}

func TestRootCommand_MissingMapFile(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, filepath.Join(dir, "absent.map"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading map file")
}

func TestRootCommand_MissingRoot(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "colors.map", "BAC3FF BFD8C0\n")

	err := execute(t, mapPath, filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root not found")
}

func TestRootCommand_DryRunFlag(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "colors.map", "BAC3FF BFD8C0\n")
	cssPath := writeFile(t, dir, "app.css", "color: #BAC3FF;")

	require.NoError(t, execute(t, "--dry-run", mapPath, dir))

	content, err := os.ReadFile(cssPath)
	require.NoError(t, err)
	assert.Equal(t, "color: #BAC3FF;", string(content))
}

func TestRootCommand_ExplicitConfigMustExist(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, "--config", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading options file")
}

func TestRootCommand_RejectsExtraArgs(t *testing.T) {
	err := execute(t, "a", "b", "c")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	require.NoError(t, execute(t, "version"))

	info := GetVersionInfo()
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
	assert.Contains(t, FormatVersion(), "recolor version info")
}
