package stats

import (
	"time"

	mstats "github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// IOPSThreshold is the largest access size, in bytes, whose throughput is
// reported in IOPS. Anything larger is reported in MB/s.
const IOPSThreshold = 64 * 1024

const mib = 1024 * 1024

// Unit is the throughput unit of a Summary.
type Unit string

const (
	IOPS Unit = "IOPS"
	MBps Unit = "MB/s"
)

// ErrNoSamples is returned when asked to aggregate an empty sample set.
var ErrNoSamples = errors.New("no samples to aggregate")

// ThroughputUnit picks the unit for an access size. It is fixed policy.
func ThroughputUnit(accessSize int) Unit {
	if accessSize <= IOPSThreshold {
		return IOPS
	}
	return MBps
}

// Summary is the aggregate of one sweep point.
type Summary struct {
	// Variable and Value name the swept parameter of the point, if any.
	Variable string  `json:"variable,omitempty"`
	Value    float64 `json:"value"`

	AccessSize int           `json:"access_size"`
	Operations int64         `json:"operations"`
	Reads      int64         `json:"reads"`
	Writes     int64         `json:"writes"`
	Elapsed    time.Duration `json:"elapsed_ns"`

	MeanLatencyUs   float64 `json:"mean_latency_us"`
	StdDevLatencyUs float64 `json:"stddev_latency_us"`

	MinLatency time.Duration `json:"min_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
	P50Latency time.Duration `json:"p50_latency_ns"`
	P95Latency time.Duration `json:"p95_latency_ns"`
	P99Latency time.Duration `json:"p99_latency_ns"`

	Throughput float64 `json:"throughput"`
	Unit       Unit    `json:"unit"`
}

// Labeled returns a copy of s tagged with the swept parameter.
func (s Summary) Labeled(variable string, value float64) Summary {
	s.Variable = variable
	s.Value = value
	return s
}

// Aggregate reduces the samples of one sweep point to a Summary.
//
// elapsed is the wall clock from the first dispatch to the last completion,
// which under concurrency is smaller than the sum of the latencies.
func Aggregate(samples []Sample, accessSize int, totalOps int64, elapsed time.Duration) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrNoSamples
	}
	if int64(len(samples)) != totalOps {
		return Summary{}, errors.Errorf("have %d samples for %d operations", len(samples), totalOps)
	}
	if elapsed <= 0 {
		return Summary{}, errors.Errorf("non-positive elapsed time %v", elapsed)
	}
	if accessSize <= 0 {
		return Summary{}, errors.Errorf("non-positive access size %d", accessSize)
	}

	hist := newLatencyHistogram()
	us := make(mstats.Float64Data, len(samples))
	var sum int64
	s := Summary{
		AccessSize: accessSize,
		Operations: totalOps,
		Elapsed:    elapsed,
		MinLatency: samples[0].Latency,
		MaxLatency: samples[0].Latency,
	}
	for i, sample := range samples {
		switch sample.Kind {
		case Read:
			s.Reads++
		case Write:
			s.Writes++
		}
		if sample.Latency < s.MinLatency {
			s.MinLatency = sample.Latency
		}
		if sample.Latency > s.MaxLatency {
			s.MaxLatency = sample.Latency
		}
		// Integer sum keeps the mean exact regardless of sample order.
		sum += int64(sample.Latency)
		us[i] = float64(sample.Latency) / float64(time.Microsecond)
		hist.record(sample.Latency)
	}

	meanNs := float64(sum) / float64(len(samples))
	s.MeanLatencyUs = meanNs / float64(time.Microsecond)

	sd, err := mstats.StandardDeviation(us)
	if err != nil {
		return Summary{}, errors.Wrap(err, "latency stddev")
	}
	s.StdDevLatencyUs = sd
	s.P50Latency = hist.quantile(50)
	s.P95Latency = hist.quantile(95)
	s.P99Latency = hist.quantile(99)

	s.Unit = ThroughputUnit(accessSize)
	secs := elapsed.Seconds()
	switch s.Unit {
	case IOPS:
		s.Throughput = float64(totalOps) / secs
	case MBps:
		s.Throughput = float64(accessSize) * float64(totalOps) / mib / secs
	}
	return s, nil
}
