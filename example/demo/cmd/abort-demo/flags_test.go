package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags(nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, cfg.Scenarios)
	assert.Equal(t, sourceCounter, cfg.Source)
	assert.Equal(t, defaultAbortAfter, cfg.AbortAfter)
	assert.False(t, cfg.ObservabilityEnabled)
}

func Test_ParseFlags_Overrides(t *testing.T) {
	cfg, err := parseFlags([]string{"-s", " B ,c", "--source", "redis", "--abort-after", "250ms", "-v"})

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, cfg.Scenarios)
	assert.Equal(t, sourceRedis, cfg.Source)
	assert.Equal(t, 250*time.Millisecond, cfg.AbortAfter)
	assert.True(t, cfg.Verbose)
}

func Test_ParseFlags_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown source", args: []string{"--source", "kafka"}},
		{name: "non-positive abort delay", args: []string{"--abort-after", "0s"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseFlags(tc.args)
			assert.Error(t, err)
		})
	}
}
