package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iosweep/pkg/stats"
)

// fakeOp is one operation observed by a fakeTarget.
type fakeOp struct {
	kind  stats.Kind
	off   int64
	n     int
	start time.Time
	end   time.Time
}

// fakeTarget is an Opener whose handles record every operation and can be
// slowed down or made to fail.
type fakeTarget struct {
	size   int64
	delay  time.Duration
	failAt int // 1-based operation index that fails, 0 never

	mu          sync.Mutex
	ops         []fakeOp
	opens       int
	started     int
	inFlight    int
	maxInFlight int
	outOfBounds int
}

func (t *fakeTarget) Open(path string, write, direct bool) (File, error) {
	t.mu.Lock()
	t.opens++
	t.mu.Unlock()
	return &fakeFile{t: t, write: write}, nil
}

func (t *fakeTarget) do(kind stats.Kind, b []byte, off int64) (int, error) {
	t.mu.Lock()
	t.inFlight++
	if t.inFlight > t.maxInFlight {
		t.maxInFlight = t.inFlight
	}
	if off < 0 || off+int64(len(b)) > t.size {
		t.outOfBounds++
	}
	t.started++
	idx := t.started
	t.mu.Unlock()

	start := time.Now()
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	end := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight--
	t.ops = append(t.ops, fakeOp{kind: kind, off: off, n: len(b), start: start, end: end})
	if t.failAt > 0 && idx == t.failAt {
		return 0, errors.New("injected device error")
	}
	return len(b), nil
}

func (t *fakeTarget) recorded() []fakeOp {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]fakeOp(nil), t.ops...)
}

type fakeFile struct {
	t     *fakeTarget
	write bool
}

func (f *fakeFile) ReadAt(b []byte, off int64) (int, error) {
	return f.t.do(stats.Read, b, off)
}

func (f *fakeFile) WriteAt(b []byte, off int64) (int, error) {
	if !f.write {
		return 0, errors.New("handle opened read-only")
	}
	return f.t.do(stats.Write, b, off)
}

func (f *fakeFile) Close() error { return nil }

// sparseTarget creates a sparse file of size bytes, enough for target.Size.
func sparseTarget(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}
