package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/devs/devstone"
	"github.com/sarchlab/devs/experiment"
)

// Environment variables read by the CLI. They override the run file and are
// overridden by flags.
const (
	EnvLogLevel    = "DEVS_LOG_LEVEL"
	EnvCoordinator = "DEVS_COORDINATOR"
	EnvWorkers     = "DEVS_WORKERS"
	EnvMonitorPort = "DEVS_MONITOR_PORT"
)

// RunConfig holds the settings of a run.
type RunConfig struct {
	LogLevel    string         `yaml:"log_level"`
	Coordinator string         `yaml:"coordinator"`
	Workers     int            `yaml:"workers"`
	TimeScale   float64        `yaml:"time_scale"`
	Record      string         `yaml:"record"`
	LogTrace    bool           `yaml:"log_trace"`
	Monitor     bool           `yaml:"monitor"`
	MonitorPort int            `yaml:"monitor_port"`
	OpenBrowser bool           `yaml:"open_browser"`
	DEVStone    DEVStoneConfig `yaml:"devstone"`
}

// DEVStoneConfig describes the DEVStone model to run.
type DEVStoneConfig struct {
	Topology string        `yaml:"topology"`
	Depth    int           `yaml:"depth"`
	Width    int           `yaml:"width"`
	IntDelay time.Duration `yaml:"int_delay"`
	ExtDelay time.Duration `yaml:"ext_delay"`
	PrepTime float64       `yaml:"prep_time"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() RunConfig {
	return RunConfig{
		LogLevel:    "warning",
		Coordinator: experiment.Sequential.String(),
		TimeScale:   1,
		DEVStone: DEVStoneConfig{
			Topology: string(devstone.LI),
			Depth:    10,
			Width:    10,
		},
	}
}

// LoadConfig reads a YAML run file on top of the defaults.
func LoadConfig(path string) (RunConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing run file: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides the settings with the environment.
func (c *RunConfig) applyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv(EnvCoordinator); ok {
		c.Coordinator = v
	}

	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}

		c.Workers = n
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		c.MonitorPort = n
		c.Monitor = true
	}

	return nil
}

// DEVStoneParams converts the model settings.
func (c *RunConfig) DEVStoneParams() devstone.Params {
	return devstone.Params{
		Topology: devstone.Topology(c.DEVStone.Topology),
		Depth:    c.DEVStone.Depth,
		Width:    c.DEVStone.Width,
		IntDelay: c.DEVStone.IntDelay,
		ExtDelay: c.DEVStone.ExtDelay,
		PrepTime: c.DEVStone.PrepTime,
	}
}

// SimulationBuilder converts the coordinator and service settings.
func (c *RunConfig) SimulationBuilder() (experiment.Builder, error) {
	kind, err := experiment.ParseKind(c.Coordinator)
	if err != nil {
		return experiment.Builder{}, err
	}

	if c.Workers < 0 {
		return experiment.Builder{}, fmt.Errorf("invalid number of workers %d", c.Workers)
	}

	if !(c.TimeScale > 0) {
		return experiment.Builder{}, fmt.Errorf("invalid time scale %g", c.TimeScale)
	}

	b := experiment.MakeBuilder().
		WithKind(kind).
		WithNumWorkers(c.Workers).
		WithTimeScale(c.TimeScale).
		WithTransitionCount().
		WithPhaseTime()

	if c.LogTrace {
		b = b.WithTransitionLog(logrus.DebugLevel)
	}

	if c.Record != "" {
		b = b.WithRecording(c.Record)
	}

	if c.Monitor {
		b = b.WithMonitor(c.MonitorPort)

		if c.OpenBrowser {
			b = b.WithOpenBrowser()
		}
	}

	return b, nil
}
