package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/runningwild/iosweep/pkg/config"
	"github.com/runningwild/iosweep/pkg/engine"
	"github.com/runningwild/iosweep/pkg/progress"
	"github.com/runningwild/iosweep/pkg/report"
	"github.com/runningwild/iosweep/pkg/stats"
	"github.com/runningwild/iosweep/pkg/sweep"
)

var (
	app = kingpin.New("iosweep", "Storage microbenchmark: sweeps one I/O parameter and reports latency and throughput.")

	logLevel    = app.Flag("log-level", "Log level: debug, info, warn, error.").Default("info").String()
	path        = app.Flag("path", "Target file, created if missing.").Default("").String()
	sizeMB      = app.Flag("size-mb", "Size of a newly created target in MiB.").Default("0").Int()
	iterations  = app.Flag("iterations", "Operations per point, or rounds for queue-depth. 0 keeps the experiment default.").Default("0").Int()
	seed        = app.Flag("seed", "Offset generator seed. 0 seeds from the clock.").Default("0").Int64()
	direct      = app.Flag("direct", "Open the target with O_DIRECT.").Bool()
	rateLimit   = app.Flag("rate-limit", "Maximum operations per second, 0 for unlimited.").Default("0").Float64()
	values      = app.Flag("value", "Sweep value, repeatable. Replaces the experiment's defaults.").Float64List()
	writeConfig = app.Flag("write-config", "Save the effective configuration to this YAML file.").Default("").String()
	jsonReport  = app.Flag("json", "Write the summaries to this JSON file.").Default("").String()
	csvReport   = app.Flag("csv", "Write the summaries to this CSV file.").Default("").String()
	noProgress  = app.Flag("no-progress", "Disable the progress bar.").Bool()

	accessSizeCmd = app.Command("access-size", "Uniform random reads at several access sizes.")
	readRatioCmd  = app.Command("read-ratio", "Mixed reads then writes at several read ratios.")
	queueDepthCmd = app.Command("queue-depth", "Rounds of concurrent reads at several queue depths.")
	engineType    = queueDepthCmd.Flag("engine", "I/O engine: sync or uring.").Default(engine.EngineSync).Enum(engine.EngineSync, engine.EngineUring)

	runCmd     = app.Command("run", "Run a sweep described by a YAML file.")
	configFile = runCmd.Flag("config", "Path to the configuration file.").Required().String()
)

// overrides holds the flags applied on top of a preset.
type overrides struct {
	Path       string
	SizeMB     int
	Iterations int
	Seed       int64
	Direct     bool
	RateLimit  float64
	Values     []float64
	EngineType string
}

func (o overrides) apply(cfg *config.Config) {
	if o.Path != "" {
		cfg.Target.Path = o.Path
	}
	if o.SizeMB > 0 {
		cfg.Target.SizeMB = o.SizeMB
	}
	if o.Iterations > 0 {
		cfg.Settings.Iterations = o.Iterations
	}
	if len(o.Values) > 0 {
		cfg.Sweep.Values = o.Values
	}
	if o.EngineType != "" {
		cfg.Settings.EngineType = o.EngineType
	}
	cfg.Settings.Seed = o.Seed
	cfg.Settings.Direct = o.Direct
	cfg.Settings.RateLimit = o.RateLimit
}

// buildConfig returns the configuration for a parsed command.
func buildConfig(command string, o overrides) (*config.Config, error) {
	var cfg *config.Config
	switch command {
	case accessSizeCmd.FullCommand():
		cfg = config.AccessSizeExperiment()
	case readRatioCmd.FullCommand():
		cfg = config.ReadRatioExperiment()
	case queueDepthCmd.FullCommand():
		cfg = config.QueueDepthExperiment()
	case runCmd.FullCommand():
		return config.Load(*configFile)
	default:
		return nil, errors.Errorf("unknown command %q", command)
	}
	o.apply(cfg)
	return cfg, nil
}

func run(command string, stdout io.Writer) error {
	cfg, err := buildConfig(command, overrides{
		Path:       *path,
		SizeMB:     *sizeMB,
		Iterations: *iterations,
		Seed:       *seed,
		Direct:     *direct,
		RateLimit:  *rateLimit,
		Values:     *values,
		EngineType: *engineType,
	})
	if err != nil {
		return err
	}
	if *writeConfig != "" {
		if err := config.Write(*writeConfig, cfg); err != nil {
			log.Warnf("Failed to write config: %v", err)
		} else {
			log.Infof("Configuration written to %s", *writeConfig)
		}
	}

	s := sweep.New(engine.New(cfg.Settings.EngineType), cfg)
	if !*noProgress {
		n := len(cfg.Sweep.Values)
		if n == 0 {
			n = 1
		}
		bar := progress.New(n, nil)
		defer bar.Finish()
		s.OnPoint = bar.Point
	}

	summaries, knee, err := s.Run()
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	report.Table(stdout, summaries)
	if len(summaries) > 1 {
		report.Knee(stdout, cfg.Sweep.Name, knee, unitOf(summaries))
	}

	if *jsonReport != "" {
		if err := report.WriteFile(*jsonReport, summaries, report.WriteJSON); err != nil {
			return err
		}
	}
	if *csvReport != "" {
		if err := report.WriteFile(*csvReport, summaries, report.WriteCSV); err != nil {
			return err
		}
	}
	return nil
}

func unitOf(summaries []stats.Summary) stats.Unit {
	return summaries[len(summaries)-1].Unit
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		kingpin.Fatalf("invalid --log-level: %v", err)
	}
	log.SetLevel(level)

	if err := run(command, os.Stdout); err != nil {
		log.Errorf("Sweep failed: %v", err)
		os.Exit(1)
	}
}
