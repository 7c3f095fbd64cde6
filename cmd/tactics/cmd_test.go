package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		if filepath.Dir(dir) == dir {
			t.Fatalf("no go.mod above %s", wd)
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := repoRoot(t)
	t.Setenv("TACTICS_CONTENT_DIR", filepath.Join(root, "content"))
	t.Setenv("TACTICS_ARCHIVE_ENABLED", "false")
	t.Setenv("TACTICS_LOGGING_LEVEL", "error")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateRepositoryContent(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok:")
}

func TestSimulateQuiet(t *testing.T) {
	party := filepath.Join(repoRoot(t), "content", "party", "default.yaml")
	out, err := run(t, "simulate", "--party", party, "--enemies", "goblin,wolf", "--seed", "cli-test", "--quiet")
	require.NoError(t, err, out)
	assert.Contains(t, out, "seed=cli-test")
	assert.Contains(t, out, "archive disabled")
}

func TestArchiveListNeedsArchive(t *testing.T) {
	_, err := run(t, "archive", "list")
	assert.ErrorIs(t, err, errArchiveDisabled)
}

func TestSimulateWaves(t *testing.T) {
	t.Cleanup(func() { waves = 1 })
	party := filepath.Join(repoRoot(t), "content", "party", "default.yaml")
	out, err := run(t, "simulate", "--party", party, "--enemies", "goblin", "--seed", "cli-waves", "--waves", "2", "--quiet")
	require.NoError(t, err, out)
	assert.Contains(t, out, "seed=cli-waves ")
}
