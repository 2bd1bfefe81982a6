package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/repovec/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "index", "update", "search", "stats", "watch", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "repovec")
}

func TestInitCmd_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { flagRoot = "" })

	out, err := runCommand(t, "init", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, config.ConfigFileName)

	_, statErr := os.Stat(filepath.Join(dir, config.ConfigFileName))
	assert.NoError(t, statErr)

	// Refuses to clobber without --force.
	_, err = runCommand(t, "init", "--root", dir)
	assert.Error(t, err)

	_, err = runCommand(t, "init", "--root", dir, "--force")
	assert.NoError(t, err)
}

func TestIndexThenStats(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { flagRoot = "" })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc A() {}\n"), 0o644))

	out, err := runCommand(t, "index", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1 files")

	out, err = runCommand(t, "stats", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "files:     1")

	out, err = runCommand(t, "search", "--root", dir, "func A")
	require.NoError(t, err)
	assert.Contains(t, out, "a.go")
}
