package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	conf, err := LoadGonwbConfig(DefaultConfig)
	require.NoError(t, err)
	assert.Equal(t, "ascii", conf.Report.Format)
	assert.Equal(t, "results", conf.Batch.Postfix)
	assert.Equal(t, []string{"sha512"}, conf.Batch.Digests)
	assert.Equal(t, "error", conf.Log.Level)
	assert.Greater(t, conf.Batch.Parallel, 0)
}

func TestLoadConfigOverrides(t *testing.T) {
	conf, err := LoadGonwbConfig(`
[Batch]
parallel = 3
postfix = "run1"

[Report]
format = "MARKDOWN"
`)
	require.NoError(t, err)
	assert.Equal(t, 3, conf.Batch.Parallel)
	assert.Equal(t, "run1", conf.Batch.Postfix)
	assert.Equal(t, "markdown", conf.Report.Format)
}

func TestLoadConfigRejectsUnknownFormat(t *testing.T) {
	_, err := LoadGonwbConfig(`
[Report]
format = "latex"
`)
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownDigest(t *testing.T) {
	_, err := LoadGonwbConfig(`
[Batch]
digests = ["crc32"]
`)
	require.Error(t, err)
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	_, err := LoadGonwbConfig("not [valid toml")
	require.Error(t, err)
}
