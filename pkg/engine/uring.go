//go:build linux

package engine

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/godzie44/go-uring/uring"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/runningwild/iosweep/pkg/stats"
	"github.com/runningwild/iosweep/pkg/target"
)

// UringEngine runs the queued pattern through io_uring: every round queues
// QueueDepth reads, each on its own handle, submits them together and waits
// for all completions. Latency is measured from submit to completion.
type UringEngine struct {
}

func NewUring() *UringEngine {
	return &UringEngine{}
}

func (e *UringEngine) Run(params Params) (*Result, error) {
	params.EngineType = EngineUring
	size, err := target.Size(params.Path)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(size); err != nil {
		return nil, err
	}
	offsets, err := newOffsetGen(params.rand(), size, params.AccessSize, params.alignment())
	if err != nil {
		return nil, err
	}

	qd := params.QueueDepth
	ring, err := uring.New(uint32(qd))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to setup io_uring")
	}
	defer ring.Close()

	block, free, err := allocBuffer(params.AccessSize*qd, params.Direct)
	if err != nil {
		return nil, err
	}
	defer free()

	total := params.TotalOperations()
	samples := stats.NewCollector(1, int(total))
	pace := newPacer(params.RateLimit)
	files := make([]*os.File, qd)

	log.WithFields(log.Fields{
		"access_size": params.AccessSize,
		"iterations":  params.Iterations,
		"queue_depth": qd,
	}).Debug("Starting io_uring workload")

	start := time.Now()
	for round := 0; round < params.Iterations; round++ {
		for i := range files {
			f, err := openFile(params.Path, false, params.Direct)
			if err != nil {
				closeAll(files[:i])
				return nil, pkgerrors.Wrap(err, "open target")
			}
			files[i] = f
		}

		err := e.round(ring, files, block, params.AccessSize, offsets, pace, samples)
		closeAll(files)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "round %d", round)
		}
	}
	elapsed := time.Since(start)

	res := &Result{
		Samples:    samples.Samples(),
		Operations: total,
		Elapsed:    elapsed,
	}
	if int64(len(res.Samples)) != total {
		return nil, pkgerrors.Errorf("collected %d samples for %d operations", len(res.Samples), total)
	}
	return res, nil
}

// round submits one read per file and reaps every completion before
// returning, even after a failed read, so no operation is left in flight.
func (e *UringEngine) round(ring *uring.Ring, files []*os.File, block []byte, accessSize int, offsets *offsetGen, pace *pacer, samples *stats.Collector) error {
	qd := len(files)
	for i, f := range files {
		buf := block[i*accessSize : (i+1)*accessSize]
		pace.wait()
		if err := ring.QueueSQE(uring.Read(f.Fd(), buf, uint64(offsets.next())), 0, uint64(i)); err != nil {
			return pkgerrors.Wrap(err, "queue read")
		}
	}

	submitted := time.Now()
	for {
		_, err := ring.Submit()
		if err == nil {
			break
		}
		if !isEINTR(err) {
			return pkgerrors.Wrap(err, "submit")
		}
	}

	var firstErr error
	completed := 0
	for completed < qd {
		var cqe *uring.CQEvent
		var err error
		for {
			cqe, err = ring.WaitCQEvents(1)
			if err == nil || !isEINTR(err) {
				break
			}
		}
		if err != nil {
			return pkgerrors.Wrap(err, "wait for completion")
		}

		for cqe != nil {
			lat := time.Since(submitted)
			switch {
			case cqe.Res < 0:
				if firstErr == nil {
					firstErr = pkgerrors.Wrap(syscall.Errno(-cqe.Res), "read")
				}
			case int(cqe.Res) != accessSize:
				if firstErr == nil {
					firstErr = pkgerrors.Errorf("short read: %d of %d bytes", cqe.Res, accessSize)
				}
			default:
				samples.Record(stats.Sample{Kind: stats.Read, Latency: lat})
			}
			ring.SeenCQE(cqe)
			completed++
			if completed == qd {
				break
			}
			cqe, _ = ring.PeekCQE()
		}
	}
	return firstErr
}

func closeAll(files []*os.File) {
	for i, f := range files {
		if f != nil {
			f.Close()
			files[i] = nil
		}
	}
}

func isEINTR(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EINTR) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err == syscall.EINTR
	}
	return false
}
