package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command in an isolated home directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := run(t, "plan", "--minutes", "60", "--pace", "average", "--ratio", "0.6")
	require.NoError(t, err, out)
	assert.Contains(t, out, "introduction")
	assert.Contains(t, out, "independent_practice")
	assert.Contains(t, out, "60 of 60 minutes allocated")

	_, err = run(t, "plan", "--pace", "warp")
	assert.ErrorContains(t, err, "invalid pace")
}

func TestPrecompileCommand_Verify(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "batches.json")
	out, err := run(t, "precompile", "--verify", "--template", "english_sight_words", "--batch-size", "3", "-o", outFile)
	require.NoError(t, err, out)
	assert.Contains(t, out, "verified 1 templates")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc precompiledDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.BatchSize)
	batch := doc.Batches["english_sight_words"]
	require.Len(t, batch, 3)
	for i, q := range batch {
		assert.Equal(t, "english_sight_words-stable-"+strconv.Itoa(i), q.ID)
		assert.True(t, q.Stable)
		assert.Len(t, q.Options, 4)
	}
}

func TestCatalogCommands(t *testing.T) {
	out, err := run(t, "catalog", "validate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(embedded)")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":"1.0.0","templates":[{"id":"x"}]}`), 0o644))
	_, err = run(t, "catalog", "validate", bad)
	assert.ErrorContains(t, err, "1 of 1 catalogs invalid")

	out, err = run(t, "catalog", "list", "--subject", "english")
	require.NoError(t, err, out)
	assert.Contains(t, out, "english_sight_words")
	assert.NotContains(t, out, "math_addition_gems")
}

func TestResetAndStats_EmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "adaptiq.db")

	out, err := run(t, "--db", db, "reset", "s-unknown")
	require.NoError(t, err, out)
	assert.Contains(t, out, "has no usage history")

	out, err = run(t, "--db", db, "stats", "s-unknown")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No events recorded")

	out, err = run(t, "--db", db, "llm", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No LLM events found.")
}
