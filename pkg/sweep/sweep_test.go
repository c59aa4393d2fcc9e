package sweep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iosweep/pkg/config"
	"github.com/runningwild/iosweep/pkg/engine"
	"github.com/runningwild/iosweep/pkg/stats"
	"github.com/runningwild/iosweep/pkg/target"
)

type mockEngine struct {
	runFunc func(params engine.Params) (*engine.Result, error)
	calls   []engine.Params
}

func (m *mockEngine) Run(params engine.Params) (*engine.Result, error) {
	m.calls = append(m.calls, params)
	return m.runFunc(params)
}

// constantResult returns one 100µs read per operation over total*1ms.
func constantResult(params engine.Params) (*engine.Result, error) {
	total := params.TotalOperations()
	res := &engine.Result{Operations: total, Elapsed: time.Duration(total) * time.Millisecond}
	for i := int64(0); i < total; i++ {
		res.Samples = append(res.Samples, stats.Sample{Kind: stats.Read, Latency: 100 * time.Microsecond})
	}
	return res, nil
}

func testConfig(t *testing.T, cfg *config.Config) *config.Config {
	t.Helper()
	cfg.Target.Path = filepath.Join(t.TempDir(), target.DefaultPath)
	cfg.Target.SizeMB = 1
	return cfg
}

func TestPoints(t *testing.T) {
	points, err := Points(config.AccessSizeExperiment())
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{4096, 16384, 131072}, []int{points[0].AccessSize, points[1].AccessSize, points[2].AccessSize})

	points, err = Points(config.ReadRatioExperiment())
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, 0.7, points[1].ReadRatio)
	assert.Equal(t, 0.0, points[3].ReadRatio)

	points, err = Points(config.QueueDepthExperiment())
	require.NoError(t, err)
	assert.Equal(t, 100, points[2].QueueDepth)
	assert.Equal(t, 100, points[2].Iterations)
}

func TestPointsRejectsBadSweep(t *testing.T) {
	cfg := config.QueueDepthExperiment()
	cfg.Sweep.Values = []float64{1, 2.5}
	_, err := Points(cfg)
	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, config.VarQueueDepth, cfgErr.Param)

	cfg.Sweep.Name = "block_size"
	_, err = Points(cfg)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "sweep", cfgErr.Param)
}

func TestRunOneSummaryPerPointInOrder(t *testing.T) {
	cfg := testConfig(t, config.QueueDepthExperiment())
	cfg.Settings.Iterations = 3
	mock := &mockEngine{runFunc: constantResult}

	var seen []int
	s := New(mock, cfg)
	s.OnPoint = func(i, n int, _ stats.Summary) {
		assert.Equal(t, 3, n)
		seen = append(seen, i)
	}
	summaries, _, err := s.Run()
	require.NoError(t, err)

	require.Len(t, summaries, 3)
	assert.Equal(t, []int{0, 1, 2}, seen)
	for i, want := range []float64{1, 10, 100} {
		assert.Equal(t, config.VarQueueDepth, summaries[i].Variable)
		assert.Equal(t, want, summaries[i].Value)
		assert.Equal(t, int64(3*want), summaries[i].Operations)
		assert.InDelta(t, 100.0, summaries[i].MeanLatencyUs, 1e-9)
		assert.InDelta(t, 1000.0, summaries[i].Throughput, 1e-6)
	}
}

func TestRunValidatesBeforeTiming(t *testing.T) {
	cfg := testConfig(t, config.AccessSizeExperiment())
	// The last access size exceeds the 1 MiB target.
	cfg.Sweep.Values = []float64{4096, 2 << 20}
	mock := &mockEngine{runFunc: constantResult}

	_, _, err := New(mock, cfg).Run()
	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "access_size", cfgErr.Param)
	assert.Empty(t, mock.calls, "no point may run when any point is invalid")
}

func TestRunZeroIterations(t *testing.T) {
	cfg := testConfig(t, config.AccessSizeExperiment())
	cfg.Settings.Iterations = 0
	mock := &mockEngine{runFunc: constantResult}

	summaries, _, err := New(mock, cfg).Run()
	var cfgErr *engine.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "iterations", cfgErr.Param)
	assert.Nil(t, summaries)
	assert.Empty(t, mock.calls)

	_, err = os.Stat(cfg.Target.Path)
	assert.True(t, os.IsNotExist(err), "target must not be provisioned")
}

func TestRunProvisioningFailureIsFatal(t *testing.T) {
	cfg := testConfig(t, config.AccessSizeExperiment())
	mock := &mockEngine{runFunc: constantResult}
	s := New(mock, cfg)
	s.Provision = func(string, int) error { return errors.New("disk full") }

	_, _, err := s.Run()
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, mock.calls)
}

func TestRunEngineErrorAbortsSweep(t *testing.T) {
	cfg := testConfig(t, config.QueueDepthExperiment())
	mock := &mockEngine{runFunc: func(p engine.Params) (*engine.Result, error) {
		if p.QueueDepth == 10 {
			return nil, errors.New("device error")
		}
		return constantResult(p)
	}}

	summaries, _, err := New(mock, cfg).Run()
	assert.Error(t, err)
	assert.Nil(t, summaries)
	assert.Len(t, mock.calls, 2)
}

func TestRunKneeOnlyForSingleUnit(t *testing.T) {
	cfg := testConfig(t, config.AccessSizeExperiment())
	cfg.Settings.Iterations = 2
	mock := &mockEngine{runFunc: constantResult}

	// 4096 and 16384 report IOPS, 131072 reports MB/s.
	summaries, knee, err := New(mock, cfg).Run()
	require.NoError(t, err)
	assert.Equal(t, stats.IOPS, summaries[0].Unit)
	assert.Equal(t, stats.MBps, summaries[2].Unit)
	assert.Zero(t, knee)
}

// A 10 MiB target read 1000 times at 4 KiB through the real engine.
func TestEndToEndUniformRead(t *testing.T) {
	cfg := testConfig(t, config.AccessSizeExperiment())
	cfg.Target.SizeMB = 10
	cfg.Sweep.Values = []float64{4096}
	cfg.Settings.Iterations = 1000
	cfg.Settings.Seed = 1

	summaries, _, err := New(engine.NewSync(), cfg).Run()
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Positive(t, s.MeanLatencyUs)
	assert.Equal(t, stats.IOPS, s.Unit)
	assert.Equal(t, int64(1000), s.Operations)
	assert.InDelta(t, 1000/s.Elapsed.Seconds(), s.Throughput, 1e-9*s.Throughput)

	size, err := target.Size(cfg.Target.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(10*target.ChunkSize), size)
}

func TestEndToEndAllExperiments(t *testing.T) {
	for _, cfg := range []*config.Config{
		config.AccessSizeExperiment(),
		config.ReadRatioExperiment(),
		config.QueueDepthExperiment(),
	} {
		cfg = testConfig(t, cfg)
		cfg.Settings.Iterations = 10
		summaries, _, err := New(engine.NewSync(), cfg).Run()
		require.NoError(t, err, cfg.Sweep.Name)
		assert.Len(t, summaries, len(cfg.Sweep.Values))
	}
}
