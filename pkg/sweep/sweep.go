package sweep

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/runningwild/iosweep/pkg/analyze"
	"github.com/runningwild/iosweep/pkg/config"
	"github.com/runningwild/iosweep/pkg/engine"
	"github.com/runningwild/iosweep/pkg/stats"
	"github.com/runningwild/iosweep/pkg/target"
)

// Sweeper runs every point of a configured sweep in order.
type Sweeper struct {
	eng engine.Engine
	cfg *config.Config

	// Provision is called once before any point runs. Defaults to target.Ensure.
	Provision func(path string, sizeMB int) error
	// OnPoint, if set, is called after each point with its 0-based index.
	OnPoint func(i, n int, s stats.Summary)
}

func New(eng engine.Engine, cfg *config.Config) *Sweeper {
	return &Sweeper{
		eng:       eng,
		cfg:       cfg,
		Provision: target.Ensure,
	}
}

// Points expands the config into one Params per sweep value, in order. A
// config without sweep values yields a single point from the settings.
func Points(cfg *config.Config) ([]engine.Params, error) {
	base := engine.Params{
		EngineType: cfg.Settings.EngineType,
		Path:       cfg.Target.Path,
		Pattern:    cfg.Settings.Pattern,
		AccessSize: cfg.Settings.AccessSize,
		Iterations: cfg.Settings.Iterations,
		ReadRatio:  cfg.Settings.ReadRatio,
		QueueDepth: cfg.Settings.QueueDepth,
		Seed:       cfg.Settings.Seed,
		Direct:     cfg.Settings.Direct,
		RateLimit:  cfg.Settings.RateLimit,
	}
	if len(cfg.Sweep.Values) == 0 {
		return []engine.Params{base}, nil
	}

	points := make([]engine.Params, 0, len(cfg.Sweep.Values))
	for _, v := range cfg.Sweep.Values {
		p := base
		switch cfg.Sweep.Name {
		case config.VarAccessSize:
			n, err := integral(cfg.Sweep.Name, v)
			if err != nil {
				return nil, err
			}
			p.AccessSize = n
		case config.VarQueueDepth:
			n, err := integral(cfg.Sweep.Name, v)
			if err != nil {
				return nil, err
			}
			p.QueueDepth = n
		case config.VarReadRatio:
			p.ReadRatio = v
		default:
			return nil, &engine.ConfigError{Param: "sweep", Reason: fmt.Sprintf("cannot sweep %q", cfg.Sweep.Name)}
		}
		points = append(points, p)
	}
	return points, nil
}

func validate(points []engine.Params, size int64) error {
	for i, p := range points {
		if err := p.Validate(size); err != nil {
			return errors.Wrapf(err, "sweep point %d", i+1)
		}
	}
	return nil
}

func integral(name string, v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, &engine.ConfigError{Param: name, Reason: fmt.Sprintf("%v is not a whole number", v)}
	}
	return int(v), nil
}

// Run provisions the target, validates every point, then measures them in
// order. It returns one Summary per point and the knee of the throughput
// curve when the sweep has a single throughput unit.
func (s *Sweeper) Run() ([]stats.Summary, analyze.Point, error) {
	points, err := Points(s.cfg)
	if err != nil {
		return nil, analyze.Point{}, err
	}
	// Everything but the target size is checked before provisioning.
	if err := validate(points, math.MaxInt64); err != nil {
		return nil, analyze.Point{}, err
	}

	if err := s.Provision(s.cfg.Target.Path, s.cfg.Target.SizeMB); err != nil {
		return nil, analyze.Point{}, err
	}
	size, err := target.Size(s.cfg.Target.Path)
	if err != nil {
		return nil, analyze.Point{}, err
	}
	if err := validate(points, size); err != nil {
		return nil, analyze.Point{}, err
	}

	name := s.cfg.Sweep.Name
	if len(s.cfg.Sweep.Values) == 0 {
		name = ""
	}
	log.Infof("Sweeping '%s' over %d points on %s", name, len(points), s.cfg.Target.Path)

	var summaries []stats.Summary
	var curve []analyze.Point
	units := map[stats.Unit]bool{}

	for i, p := range points {
		res, err := s.eng.Run(p)
		if err != nil {
			return nil, analyze.Point{}, errors.Wrapf(err, "sweep point %d", i+1)
		}
		sum, err := res.Summarize(p.AccessSize)
		if err != nil {
			return nil, analyze.Point{}, errors.Wrapf(err, "sweep point %d", i+1)
		}
		value := 0.0
		if name != "" {
			value = s.cfg.Sweep.Values[i]
		}
		sum = sum.Labeled(name, value)

		log.WithFields(log.Fields{
			"point":      fmt.Sprintf("%d/%d", i+1, len(points)),
			"variable":   name,
			"value":      value,
			"latency_us": fmt.Sprintf("%.2f", sum.MeanLatencyUs),
			"throughput": fmt.Sprintf("%.2f %s", sum.Throughput, sum.Unit),
		}).Info("Point complete")

		summaries = append(summaries, sum)
		curve = append(curve, analyze.Point{X: value, Y: sum.Throughput})
		units[sum.Unit] = true
		if s.OnPoint != nil {
			s.OnPoint(i, len(points), sum)
		}
	}

	var knee analyze.Point
	if name != "" && len(units) == 1 {
		knee = analyze.FindKnee(curve)
	}
	return summaries, knee, nil
}
