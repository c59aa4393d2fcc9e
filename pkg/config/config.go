package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/runningwild/iosweep/pkg/engine"
	"github.com/runningwild/iosweep/pkg/target"
)

// Names of the parameters a sweep can vary.
const (
	VarAccessSize = "access_size"
	VarReadRatio  = "read_ratio"
	VarQueueDepth = "queue_depth"
)

// Config represents one experiment: a target, the fixed settings and the
// single parameter swept over.
type Config struct {
	Target   Target   `yaml:"target"`
	Sweep    Variable `yaml:"sweep"`
	Settings Settings `yaml:"settings"`
}

type Target struct {
	Path   string `yaml:"path"`
	SizeMB int    `yaml:"size_mb"` // Size used when the file has to be created
}

// Settings hold the parameters that stay fixed across the sweep.
type Settings struct {
	Pattern    engine.Pattern `yaml:"pattern"`     // "read", "mixed" or "queued"
	EngineType string         `yaml:"engine_type"` // "sync" or "uring"
	AccessSize int            `yaml:"access_size"`
	Iterations int            `yaml:"iterations"`
	ReadRatio  float64        `yaml:"read_ratio"`
	QueueDepth int            `yaml:"queue_depth"`
	Seed       int64          `yaml:"seed"`
	Direct     bool           `yaml:"direct"`
	RateLimit  float64        `yaml:"rate_limit"` // Operations per second, 0 for unlimited
}

// Variable is the swept parameter and its values, in sweep order.
type Variable struct {
	Name   string    `yaml:"variable"` // "access_size", "read_ratio", "queue_depth"
	Values []float64 `yaml:"values"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// Write saves cfg as YAML.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return os.WriteFile(path, data, 0644)
}

// SetDefaults fills unset fields. A zero read ratio is meaningful for mixed
// workloads, so it is only defaulted for the other patterns.
func (c *Config) SetDefaults() {
	if c.Target.Path == "" {
		c.Target.Path = target.DefaultPath
	}
	if c.Target.SizeMB == 0 {
		c.Target.SizeMB = DefaultSizeMB
	}
	if c.Settings.Pattern == "" {
		c.Settings.Pattern = engine.PatternRead
	}
	if c.Settings.EngineType == "" {
		c.Settings.EngineType = engine.EngineSync
	}
	if c.Settings.AccessSize == 0 {
		c.Settings.AccessSize = 4096
	}
	if c.Settings.QueueDepth == 0 {
		c.Settings.QueueDepth = 1
	}
	if c.Settings.Pattern != engine.PatternMixed && c.Settings.ReadRatio == 0 {
		c.Settings.ReadRatio = 1
	}
}
