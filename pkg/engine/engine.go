package engine

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/runningwild/iosweep/pkg/stats"
	"github.com/runningwild/iosweep/pkg/target"
)

// SyncEngine performs blocking positioned reads and writes.
type SyncEngine struct {
	open Opener
}

func NewSync() *SyncEngine {
	return &SyncEngine{open: OSOpener{}}
}

// NewSyncWithOpener returns a sync engine doing its I/O through open.
func NewSyncWithOpener(open Opener) *SyncEngine {
	return &SyncEngine{open: open}
}

// Run executes the workload described by params and returns one sample per
// operation. Any I/O error aborts the point; no sample is ever dropped.
func (e *SyncEngine) Run(params Params) (*Result, error) {
	size, err := target.Size(params.Path)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(size); err != nil {
		return nil, err
	}
	wl := workloadFor(params.Pattern)
	offsets, err := newOffsetGen(params.rand(), size, params.AccessSize, params.alignment())
	if err != nil {
		return nil, err
	}

	total := params.TotalOperations()
	shards := wl.shards(params)
	samples := stats.NewCollector(shards, int(total)/shards)
	r := &runner{
		p:       params,
		open:    e.open,
		offsets: offsets,
		pace:    newPacer(params.RateLimit),
		samples: samples,
	}

	log.WithFields(log.Fields{
		"pattern":     params.Pattern,
		"access_size": params.AccessSize,
		"iterations":  params.Iterations,
		"read_ratio":  params.ReadRatio,
		"queue_depth": params.QueueDepth,
	}).Debug("Starting workload")

	start := time.Now()
	err = wl.run(r)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Samples:    samples.Samples(),
		Operations: total,
		Elapsed:    elapsed,
	}
	if int64(len(res.Samples)) != total {
		return nil, errors.Errorf("collected %d samples for %d operations", len(res.Samples), total)
	}
	return res, nil
}
