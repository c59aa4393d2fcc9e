package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minTrackable = int64(time.Nanosecond)
	maxTrackable = int64(time.Minute)
	sigFigs      = 3
)

// latencyHistogram tracks nanosecond latencies. Values beyond the trackable
// range are clamped rather than dropped so that percentiles always account
// for every sample.
type latencyHistogram struct {
	h *hdrhistogram.Histogram
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{h: hdrhistogram.New(minTrackable, maxTrackable, sigFigs)}
}

func (l *latencyHistogram) record(d time.Duration) {
	v := int64(d)
	if v < minTrackable {
		v = minTrackable
	}
	if v > maxTrackable {
		v = maxTrackable
	}
	// Clamped above, so RecordValue cannot report out of range.
	_ = l.h.RecordValue(v)
}

// quantile returns the latency at percentile p (0-100).
func (l *latencyHistogram) quantile(p float64) time.Duration {
	return time.Duration(l.h.ValueAtQuantile(p))
}
