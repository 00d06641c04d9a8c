package scheduler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/killchain/core/model"
)

func TestDecodeOptions(t *testing.T) {
	yml := `
max_horizon: 120
time_limit_ms: 1500
node_limit: 1000
same_platform_groups:
  - [5, 6, 7]
`
	opts, err := DecodeOptions(strings.NewReader(yml), "yaml")
	require.NoError(t, err)
	assert.Equal(t, int64(120), opts.MaxHorizon)
	assert.Equal(t, 1500*time.Millisecond, opts.TimeLimit())
	assert.Equal(t, int64(1000), opts.NodeLimit)
	assert.Equal(t, [][]model.PhaseID{{5, 6, 7}}, opts.SamePlatformGroups)

	opts, err = DecodeOptions(strings.NewReader(`{"max_horizon": 30}`), "JSON")
	require.NoError(t, err)
	assert.Equal(t, int64(30), opts.MaxHorizon)
}

func TestDecodeOptions_Errors(t *testing.T) {
	_, err := DecodeOptions(strings.NewReader(`max_horizon: 1`), "toml")
	assert.Error(t, err)

	_, err = DecodeOptions(strings.NewReader(`{"node_limit": -1}`), "json")
	assert.Error(t, err)

	_, err = DecodeOptions(strings.NewReader(`{"same_platform_groups": [[5]]}`), "json")
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yml")
	require.NoError(t, os.WriteFile(path, []byte("time_limit_ms: 250\n"), 0o600))
	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, opts.TimeLimit())

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
