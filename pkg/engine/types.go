package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/runningwild/iosweep/pkg/stats"
)

// Engine executes one sweep point against a target file.
type Engine interface {
	Run(params Params) (*Result, error)
}

const (
	EngineSync  = "sync"
	EngineUring = "uring"
)

// New returns the engine registered under engineType. Unknown names fall back
// to the sync engine; Params.Validate reports them before anything runs.
func New(engineType string) Engine {
	switch engineType {
	case EngineUring:
		return NewUring()
	default:
		return NewSync()
	}
}

// Pattern selects the access pattern of a workload.
type Pattern string

const (
	// PatternRead issues uniformly random reads, one at a time.
	PatternRead Pattern = "read"
	// PatternMixed issues all reads first, then all writes, one at a time.
	PatternMixed Pattern = "mixed"
	// PatternQueued issues rounds of QueueDepth concurrent reads.
	PatternQueued Pattern = "queued"
)

// DirectAlignment is the offset and buffer alignment used with O_DIRECT.
const DirectAlignment = 4096

// Params is the configuration of one sweep point.
type Params struct {
	EngineType string  `json:"engine_type"` // "sync" or "uring"
	Path       string  `json:"path"`        // Target file
	Pattern    Pattern `json:"pattern"`
	AccessSize int     `json:"access_size"` // Bytes per operation
	Iterations int     `json:"iterations"`  // Operations, or rounds for PatternQueued
	ReadRatio  float64 `json:"read_ratio"`  // Fraction of reads, PatternMixed only
	QueueDepth int     `json:"queue_depth"` // Concurrent operations per round, PatternQueued only
	Seed       int64   `json:"seed"`        // Offset RNG seed; 0 seeds from the clock
	Direct     bool    `json:"direct"`      // Use O_DIRECT
	RateLimit  float64 `json:"rate_limit"`  // Max operations per second, 0 for unlimited
}

// Result holds the raw measurements of one sweep point.
type Result struct {
	Samples    []stats.Sample
	Operations int64
	// Elapsed spans the first dispatch to the last completion.
	Elapsed time.Duration
}

// Summarize aggregates the result.
func (r *Result) Summarize(accessSize int) (stats.Summary, error) {
	return stats.Aggregate(r.Samples, accessSize, r.Operations, r.Elapsed)
}

// ConfigError reports a parameter that makes a sweep point unrunnable.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func invalid(param, format string, args ...interface{}) error {
	return &ConfigError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// Reads returns how many operations of a mixed workload are reads.
func (p Params) Reads() int {
	switch p.Pattern {
	case PatternMixed:
		return int(math.Floor(float64(p.Iterations) * p.ReadRatio))
	case PatternQueued:
		return p.Iterations * p.QueueDepth
	}
	return p.Iterations
}

// Writes returns how many operations of a mixed workload are writes.
func (p Params) Writes() int {
	if p.Pattern != PatternMixed {
		return 0
	}
	return p.Iterations - p.Reads()
}

// TotalOperations returns the number of operations, and so samples, the
// point produces.
func (p Params) TotalOperations() int64 {
	if p.Pattern == PatternQueued {
		return int64(p.Iterations) * int64(p.QueueDepth)
	}
	return int64(p.Iterations)
}

// Validate checks p against a target of fileSize bytes.
func (p Params) Validate(fileSize int64) error {
	switch p.Pattern {
	case PatternRead, PatternMixed, PatternQueued:
	default:
		return invalid("pattern", "unknown pattern %q", p.Pattern)
	}
	switch p.EngineType {
	case "", EngineSync:
	case EngineUring:
		if p.Pattern != PatternQueued {
			return invalid("engine_type", "uring only runs the %q pattern, not %q", PatternQueued, p.Pattern)
		}
	default:
		return invalid("engine_type", "unknown engine %q", p.EngineType)
	}
	if p.AccessSize <= 0 {
		return invalid("access_size", "must be positive, got %d", p.AccessSize)
	}
	if int64(p.AccessSize) > fileSize {
		return invalid("access_size", "%d bytes exceeds target size %d", p.AccessSize, fileSize)
	}
	if p.Iterations <= 0 {
		return invalid("iterations", "must be positive, got %d", p.Iterations)
	}
	if p.Pattern == PatternMixed && (math.IsNaN(p.ReadRatio) || p.ReadRatio < 0 || p.ReadRatio > 1) {
		return invalid("read_ratio", "must be within [0, 1], got %v", p.ReadRatio)
	}
	if p.Pattern == PatternQueued && p.QueueDepth <= 0 {
		return invalid("queue_depth", "must be positive, got %d", p.QueueDepth)
	}
	if p.RateLimit < 0 || math.IsNaN(p.RateLimit) {
		return invalid("rate_limit", "must not be negative, got %v", p.RateLimit)
	}
	if p.Direct {
		if !directSupported {
			return invalid("direct", "O_DIRECT is not supported on this platform")
		}
		if p.AccessSize%DirectAlignment != 0 {
			return invalid("access_size", "%d is not a multiple of %d, required with O_DIRECT", p.AccessSize, DirectAlignment)
		}
	}
	return nil
}

func (p Params) rand() *rand.Rand {
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (p Params) alignment() int64 {
	if p.Direct {
		return DirectAlignment
	}
	return 1
}
