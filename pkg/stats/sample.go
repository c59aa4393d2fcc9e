package stats

import "time"

// Kind distinguishes reads from writes.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return "unknown"
}

// Sample is the measured latency of exactly one operation.
type Sample struct {
	Kind    Kind
	Latency time.Duration
}

// Collector accumulates samples for one sweep point.
//
// It is split into shards so that concurrent operations each append to their
// own buffer and never contend on a lock while being timed. A shard must only
// be used by one goroutine at a time; callers establish that with a barrier
// (the queued workload gives each in-flight slot its own shard).
type Collector struct {
	shards []*Shard
}

// Shard is a single-writer slice of samples.
type Shard struct {
	samples []Sample
}

// NewCollector creates a collector with n shards, each pre-sized to hold
// perShard samples so recording does not allocate on the hot path.
func NewCollector(n int, perShard int) *Collector {
	if n < 1 {
		n = 1
	}
	c := &Collector{shards: make([]*Shard, n)}
	for i := range c.shards {
		c.shards[i] = &Shard{samples: make([]Sample, 0, perShard)}
	}
	return c
}

// Shard returns shard i.
func (c *Collector) Shard(i int) *Shard {
	return c.shards[i]
}

// Record appends a sample to the first shard. Only safe for sequential use.
func (c *Collector) Record(s Sample) {
	c.shards[0].Record(s)
}

// Record appends s to the shard.
func (s *Shard) Record(sample Sample) {
	s.samples = append(s.samples, sample)
}

// Len returns the number of samples recorded so far across all shards.
func (c *Collector) Len() int {
	n := 0
	for _, s := range c.shards {
		n += len(s.samples)
	}
	return n
}

// Samples merges every shard into one slice. Shard order is preserved, so a
// single-shard collector returns samples in dispatch order.
func (c *Collector) Samples() []Sample {
	out := make([]Sample, 0, c.Len())
	for _, s := range c.shards {
		out = append(out, s.samples...)
	}
	return out
}
