//go:build linux

package engine

import (
	"path/filepath"
	"testing"

	"github.com/godzie44/go-uring/uring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iosweep/pkg/target"
)

func requireUring(t *testing.T) {
	t.Helper()
	ring, err := uring.New(8)
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	ring.Close()
}

func TestUringQueuedRead(t *testing.T) {
	requireUring(t)
	path := filepath.Join(t.TempDir(), target.DefaultPath)
	require.NoError(t, target.Ensure(path, 10))

	params := Params{
		EngineType: EngineUring,
		Path:       path,
		Pattern:    PatternQueued,
		AccessSize: 4096,
		Iterations: 5,
		QueueDepth: 10,
		Seed:       1,
	}
	res, err := NewUring().Run(params)
	require.NoError(t, err)
	assert.Len(t, res.Samples, 50)

	s, err := res.Summarize(params.AccessSize)
	require.NoError(t, err)
	assert.Positive(t, s.MeanLatencyUs)
	assert.Positive(t, s.Throughput)
}

func TestUringRejectsSequentialPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), target.DefaultPath)
	require.NoError(t, target.Ensure(path, 1))

	_, err := NewUring().Run(Params{Path: path, Pattern: PatternRead, AccessSize: 4096, Iterations: 1})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "engine_type", cfgErr.Param)
}
