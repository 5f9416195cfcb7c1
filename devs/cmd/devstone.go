package cmd

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/devs/devstone"
	"github.com/sarchlab/devs/modeling"
)

// DEVStoneReport is printed after a DEVStone run.
type DEVStoneReport struct {
	RunID       string `yaml:"run_id"`
	Topology    string `yaml:"topology"`
	Depth       int    `yaml:"depth"`
	Width       int    `yaml:"width"`
	Coordinator string `yaml:"coordinator"`
	Workers     int    `yaml:"workers,omitempty"`

	Atomics int `yaml:"atomics"`
	Coupled int `yaml:"coupled"`
	IC      int `yaml:"ic"`
	EIC     int `yaml:"eic"`
	EOC     int `yaml:"eoc"`

	Iterations          int64   `yaml:"iterations"`
	IntTransitions      int     `yaml:"int_transitions"`
	ExtTransitions      int     `yaml:"ext_transitions"`
	ExpectedTransitions int     `yaml:"expected_transitions"`
	FinalTime           float64 `yaml:"final_time"`
	ActiveTime          float64 `yaml:"active_time"`

	BuildTime      time.Duration `yaml:"build_time"`
	SimulationTime time.Duration `yaml:"simulation_time"`

	Record     string `yaml:"record,omitempty"`
	MonitorURL string `yaml:"monitor_url,omitempty"`
}

type devstoneFlags struct {
	cfg RunConfig
}

func newDEVStoneCmd(root *rootOptions) *cobra.Command {
	f := &devstoneFlags{cfg: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "devstone",
		Short: "Run the DEVStone benchmark.",
		Long: `Builds a DEVStone model, injects one value into each of its ` +
			`inputs, and runs it until it is quiescent. The report is ` +
			`printed as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			f.override(cmd, &cfg)

			report, err := runDEVStone(cfg)
			if err != nil {
				return err
			}

			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(report)
		},
	}

	flags := cmd.Flags()
	d := &f.cfg.DEVStone
	flags.StringVar(&d.Topology, "topology", d.Topology, "LI, HI, HO, or HOmod")
	flags.IntVar(&d.Depth, "depth", d.Depth, "number of levels")
	flags.IntVar(&d.Width, "width", d.Width, "width of each level")
	flags.DurationVar(&d.IntDelay, "int-delay", d.IntDelay,
		"CPU time burnt by each internal transition")
	flags.DurationVar(&d.ExtDelay, "ext-delay", d.ExtDelay,
		"CPU time burnt by each external transition")
	flags.Float64Var(&d.PrepTime, "prep-time", d.PrepTime,
		"simulation time between an input and its output")

	c := &f.cfg
	flags.StringVar(&c.Coordinator, "coordinator", c.Coordinator,
		"sequential, parallel, or realtime")
	flags.IntVar(&c.Workers, "workers", c.Workers,
		"worker pool size, 0 for one per CPU")
	flags.Float64Var(&c.TimeScale, "time-scale", c.TimeScale,
		"wall-clock seconds per time unit of real-time runs")
	flags.StringVar(&c.Record, "record", c.Record,
		"record the traces into this file, without the .sqlite3 extension")
	flags.BoolVar(&c.LogTrace, "log-trace", c.LogTrace,
		"log every output and transition at debug level")
	flags.BoolVar(&c.Monitor, "monitor", c.Monitor, "serve the live monitor")
	flags.IntVar(&c.MonitorPort, "monitor-port", c.MonitorPort,
		"port of the monitor, 0 for a random one")
	flags.BoolVar(&c.OpenBrowser, "open-browser", c.OpenBrowser,
		"open the monitor in a browser")

	return cmd
}

func (f *devstoneFlags) override(cmd *cobra.Command, cfg *RunConfig) {
	flags := cmd.Flags()

	if flags.Changed("topology") {
		cfg.DEVStone.Topology = f.cfg.DEVStone.Topology
	}

	if flags.Changed("depth") {
		cfg.DEVStone.Depth = f.cfg.DEVStone.Depth
	}

	if flags.Changed("width") {
		cfg.DEVStone.Width = f.cfg.DEVStone.Width
	}

	if flags.Changed("int-delay") {
		cfg.DEVStone.IntDelay = f.cfg.DEVStone.IntDelay
	}

	if flags.Changed("ext-delay") {
		cfg.DEVStone.ExtDelay = f.cfg.DEVStone.ExtDelay
	}

	if flags.Changed("prep-time") {
		cfg.DEVStone.PrepTime = f.cfg.DEVStone.PrepTime
	}

	if flags.Changed("coordinator") {
		cfg.Coordinator = f.cfg.Coordinator
	}

	if flags.Changed("workers") {
		cfg.Workers = f.cfg.Workers
	}

	if flags.Changed("time-scale") {
		cfg.TimeScale = f.cfg.TimeScale
	}

	if flags.Changed("record") {
		cfg.Record = f.cfg.Record
	}

	if flags.Changed("log-trace") {
		cfg.LogTrace = f.cfg.LogTrace
	}

	if flags.Changed("monitor") {
		cfg.Monitor = f.cfg.Monitor
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort = f.cfg.MonitorPort
		cfg.Monitor = true
	}

	if flags.Changed("open-browser") {
		cfg.OpenBrowser = f.cfg.OpenBrowser
	}
}

func runDEVStone(cfg RunConfig) (report DEVStoneReport, err error) {
	params := cfg.DEVStoneParams()

	builder, err := cfg.SimulationBuilder()
	if err != nil {
		return report, err
	}

	start := time.Now()

	model, err := devstone.New("devstone", params)
	if err != nil {
		return report, err
	}

	// Parallel coordinators flatten the model, so count before building.
	report.Atomics, report.Coupled = model.CountComponents()
	report.IC, report.EIC, report.EOC = model.CountCouplings()

	sim, err := builder.Build(model)
	if err != nil {
		return report, err
	}

	defer func() {
		if termErr := sim.Terminate(); termErr != nil && err == nil {
			err = termErr
		}
	}()

	report.BuildTime = time.Since(start)

	if err := sim.Initialize(); err != nil {
		return report, err
	}

	logrus.WithFields(logrus.Fields{
		"topology": params.Topology,
		"depth":    params.Depth,
		"width":    params.Width,
	}).Info("running devstone")

	start = time.Now()

	if err := model.Stimulate(sim); err != nil {
		return report, err
	}

	if err := sim.SimulateTime(math.Inf(1)); err != nil {
		return report, err
	}

	report.SimulationTime = time.Since(start)

	report.RunID = sim.ID()
	report.Topology = string(params.Topology)
	report.Depth = params.Depth
	report.Width = params.Width
	report.Coordinator = cfg.Coordinator
	report.Iterations = sim.Coordinator().Iterations()
	report.IntTransitions, report.ExtTransitions = model.EventCount()
	report.ExpectedTransitions = params.ExpectedTransitions()
	report.FinalTime = sim.Coordinator().Clock().Time()
	report.ActiveTime = sim.PhaseTime().TotalTime(modeling.PhaseActive)

	if pc, ok := sim.Coordinator().(interface{ NumWorkers() int }); ok {
		report.Workers = pc.NumWorkers()
	}

	if cfg.Record != "" {
		report.Record = cfg.Record + ".sqlite3"
	}

	if m := sim.Monitor(); m != nil {
		report.MonitorURL = m.URL()
	}

	return report, nil
}
