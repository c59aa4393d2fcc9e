package engine

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/runningwild/iosweep/pkg/stats"
)

// workload is one access pattern. All patterns share the target, offset
// generation, pacing and sample collection held by the runner.
type workload interface {
	// shards is the number of collector shards the pattern writes to.
	shards(p Params) int
	run(r *runner) error
}

func workloadFor(p Pattern) workload {
	switch p {
	case PatternRead:
		return randomRead{}
	case PatternMixed:
		return mixedReadWrite{}
	case PatternQueued:
		return queuedRead{}
	}
	return nil
}

type runner struct {
	p       Params
	open    Opener
	offsets *offsetGen
	pace    *pacer
	samples *stats.Collector
}

// pacer caps the dispatch rate. A nil pacer never waits.
type pacer struct {
	lim *rate.Limiter
}

func newPacer(opsPerSec float64) *pacer {
	if opsPerSec <= 0 {
		return nil
	}
	return &pacer{lim: rate.NewLimiter(rate.Limit(opsPerSec), 1)}
}

func (p *pacer) wait() {
	if p == nil {
		return
	}
	time.Sleep(p.lim.Reserve().Delay())
}

// timedRead and timedWrite time the I/O call and nothing else.
func timedRead(f File, buf []byte, off int64) (time.Duration, error) {
	start := time.Now()
	n, err := f.ReadAt(buf, off)
	lat := time.Since(start)
	return lat, checkIO(n, len(buf), err, "read", off)
}

func timedWrite(f File, buf []byte, off int64) (time.Duration, error) {
	start := time.Now()
	n, err := f.WriteAt(buf, off)
	lat := time.Since(start)
	return lat, checkIO(n, len(buf), err, "write", off)
}

func checkIO(n, want int, err error, op string, off int64) error {
	if err == io.EOF && n == want {
		err = nil
	}
	if err != nil {
		return errors.Wrapf(err, "%s of %d bytes at offset %d", op, want, off)
	}
	if n != want {
		return errors.Errorf("short %s at offset %d: %d of %d bytes", op, off, n, want)
	}
	return nil
}

// randomRead reads AccessSize bytes at a fresh random offset per iteration.
type randomRead struct{}

func (randomRead) shards(Params) int { return 1 }

func (randomRead) run(r *runner) error {
	f, err := r.open.Open(r.p.Path, false, r.p.Direct)
	if err != nil {
		return errors.Wrap(err, "open target")
	}
	defer f.Close()

	buf, free, err := allocBuffer(r.p.AccessSize, r.p.Direct)
	if err != nil {
		return err
	}
	defer free()

	for i := 0; i < r.p.Iterations; i++ {
		off := r.offsets.next()
		r.pace.wait()
		lat, err := timedRead(f, buf, off)
		if err != nil {
			return err
		}
		r.samples.Record(stats.Sample{Kind: stats.Read, Latency: lat})
	}
	return nil
}

// mixedReadWrite performs every read before any write. Reads and writes are
// therefore not contemporaneous; the ordering is part of the workload.
type mixedReadWrite struct{}

func (mixedReadWrite) shards(Params) int { return 1 }

func (mixedReadWrite) run(r *runner) error {
	f, err := r.open.Open(r.p.Path, true, r.p.Direct)
	if err != nil {
		return errors.Wrap(err, "open target")
	}
	defer f.Close()

	buf, free, err := allocBuffer(r.p.AccessSize, r.p.Direct)
	if err != nil {
		return err
	}
	defer free()

	for i := 0; i < r.p.Reads(); i++ {
		off := r.offsets.next()
		r.pace.wait()
		lat, err := timedRead(f, buf, off)
		if err != nil {
			return err
		}
		r.samples.Record(stats.Sample{Kind: stats.Read, Latency: lat})
	}

	for i := 0; i < r.p.Writes(); i++ {
		off := r.offsets.next()
		if _, err := rand.Read(buf); err != nil {
			return errors.Wrap(err, "generate write payload")
		}
		r.pace.wait()
		lat, err := timedWrite(f, buf, off)
		if err != nil {
			return err
		}
		r.samples.Record(stats.Sample{Kind: stats.Write, Latency: lat})
	}
	return nil
}

// queuedRead runs Iterations rounds of QueueDepth concurrent reads. Each read
// opens its own handle, and a round completes entirely before the next one is
// dispatched.
type queuedRead struct{}

func (queuedRead) shards(p Params) int { return p.QueueDepth }

func (queuedRead) run(r *runner) error {
	qd := r.p.QueueDepth
	bufs := make([][]byte, qd)
	for i := range bufs {
		buf, free, err := allocBuffer(r.p.AccessSize, r.p.Direct)
		if err != nil {
			return err
		}
		defer free()
		bufs[i] = buf
	}
	offs := make([]int64, qd)

	for round := 0; round < r.p.Iterations; round++ {
		// Drawn up front so the offsets depend only on the seed.
		for i := range offs {
			offs[i] = r.offsets.next()
		}

		var g errgroup.Group
		g.SetLimit(qd)
		for i := 0; i < qd; i++ {
			r.pace.wait()
			i := i
			g.Go(func() error {
				return r.readOnce(r.samples.Shard(i), bufs[i], offs[i])
			})
		}
		if err := g.Wait(); err != nil {
			return errors.Wrapf(err, "round %d", round)
		}
	}
	return nil
}

func (r *runner) readOnce(shard *stats.Shard, buf []byte, off int64) error {
	f, err := r.open.Open(r.p.Path, false, r.p.Direct)
	if err != nil {
		return errors.Wrap(err, "open target")
	}
	lat, err := timedRead(f, buf, off)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "close target")
	}
	if err != nil {
		return err
	}
	shard.Record(stats.Sample{Kind: stats.Read, Latency: lat})
	return nil
}
