package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/killchain/core/model"
)

func writeFiles(t *testing.T) (cfg, table string) {
	t.Helper()
	dir := t.TempDir()
	cfg = filepath.Join(dir, "config.yaml")
	runs := filepath.Join(dir, "runs.jsonl")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf("runlog:\n  path: %q\n", runs)), 0o644))
	table = filepath.Join(dir, "table.csv")
	csv := "target,phase,platform,duration\n1,1,1,3\n1,2,2,5\n"
	require.NoError(t, os.WriteFile(table, []byte(csv), 0o644))
	return cfg, table
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSolveCommandJSON(t *testing.T) {
	cfg, table := writeFiles(t)
	out, err := execute(t, "solve", "-c", cfg, "-t", table, "-f", "json")
	require.NoError(t, err)

	var s model.Schedule
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, int64(8), s.Makespan)
	assert.True(t, s.Optimal)
	assert.Len(t, s.Results, 2)

	out, err = execute(t, "runs", "-c", cfg, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, s.RunID)
}

func TestInspectCommand(t *testing.T) {
	cfg, table := writeFiles(t)
	out, err := execute(t, "inspect", "-c", cfg, table)
	require.NoError(t, err)
	assert.Contains(t, out, "horizon")
	assert.Contains(t, out, "lower bound")
}

func TestSolveCommandRejectsFormat(t *testing.T) {
	cfg, table := writeFiles(t)
	_, err := execute(t, "solve", "-c", cfg, "-t", table, "-f", "xml")
	assert.Error(t, err)
	outFormat = "table"
}
