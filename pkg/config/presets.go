package config

import (
	"github.com/runningwild/iosweep/pkg/engine"
	"github.com/runningwild/iosweep/pkg/target"
)

// DefaultSizeMB is the size of a freshly provisioned target.
const DefaultSizeMB = 200

// AccessSizeExperiment reads at 4 KiB, 16 KiB and 128 KiB.
func AccessSizeExperiment() *Config {
	return &Config{
		Target: Target{Path: target.DefaultPath, SizeMB: DefaultSizeMB},
		Sweep:  Variable{Name: VarAccessSize, Values: []float64{4096, 16384, 131072}},
		Settings: Settings{
			Pattern:    engine.PatternRead,
			EngineType: engine.EngineSync,
			AccessSize: 4096,
			Iterations: 10000,
			ReadRatio:  1,
			QueueDepth: 1,
		},
	}
}

// ReadRatioExperiment mixes 4 KiB reads and writes at decreasing read ratios.
func ReadRatioExperiment() *Config {
	return &Config{
		Target: Target{Path: target.DefaultPath, SizeMB: DefaultSizeMB},
		Sweep:  Variable{Name: VarReadRatio, Values: []float64{1.0, 0.7, 0.5, 0.0}},
		Settings: Settings{
			Pattern:    engine.PatternMixed,
			EngineType: engine.EngineSync,
			AccessSize: 4096,
			Iterations: 10000,
			ReadRatio:  1,
			QueueDepth: 1,
		},
	}
}

// QueueDepthExperiment issues rounds of 1, 10 and 100 concurrent 4 KiB reads.
func QueueDepthExperiment() *Config {
	return &Config{
		Target: Target{Path: target.DefaultPath, SizeMB: DefaultSizeMB},
		Sweep:  Variable{Name: VarQueueDepth, Values: []float64{1, 10, 100}},
		Settings: Settings{
			Pattern:    engine.PatternQueued,
			EngineType: engine.EngineSync,
			AccessSize: 4096,
			Iterations: 100,
			ReadRatio:  1,
			QueueDepth: 1,
		},
	}
}
