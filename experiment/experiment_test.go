package experiment_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/experiment"
	"github.com/sarchlab/devs/modeling"
	"github.com/sarchlab/devs/monitoring"
	"github.com/sarchlab/devs/simulation"
	"github.com/sarchlab/devs/tracing"
)

var _ = Describe("Kind", func() {
	It("should parse names", func() {
		for _, k := range []experiment.Kind{
			experiment.Sequential, experiment.Parallel, experiment.RealTime,
		} {
			parsed, err := experiment.ParseKind(k.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(k))
		}
	})

	It("should reject unknown names", func() {
		_, err := experiment.ParseKind("distributed")
		Expect(err).To(MatchError(experiment.ErrUnknownKind))
	})
})

var _ = Describe("Builder", func() {
	It("should build a bare sequential simulation", func() {
		top, _, s := buildClockModel()

		sim, err := experiment.MakeBuilder().WithRunID("run").Build(top)
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.ID()).To(Equal("run"))
		Expect(sim.Coordinator()).To(BeAssignableToTypeOf(&simulation.Coordinator{}))
		Expect(sim.Model()).To(BeIdenticalTo(top))
		Expect(sim.DataRecorder()).To(BeNil())
		Expect(sim.Counter()).To(BeNil())
		Expect(sim.Monitor()).To(BeNil())

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateTime(3.5)).To(Succeed())
		Expect(s.received).To(Equal([]int{0, 1, 2, 3}))
		Expect(sim.Terminate()).To(Succeed())
	})

	It("should generate a run id", func() {
		top, _, _ := buildClockModel()

		sim, err := experiment.MakeBuilder().Build(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.ID()).NotTo(BeEmpty())
	})

	It("should build parallel and real-time coordinators", func() {
		top, _, _ := buildClockModel()
		sim, err := experiment.MakeBuilder().
			WithKind(experiment.Parallel).
			WithNumWorkers(2).
			Build(top)
		Expect(err).NotTo(HaveOccurred())
		pc, ok := sim.Coordinator().(*simulation.ParallelCoordinator)
		Expect(ok).To(BeTrue())
		Expect(pc.NumWorkers()).To(Equal(2))

		top, _, _ = buildClockModel()
		sim, err = experiment.MakeBuilder().
			WithKind(experiment.RealTime).
			WithTimeScale(0.5).
			Build(top)
		Expect(err).NotTo(HaveOccurred())
		rt, ok := sim.Coordinator().(*simulation.RealTimeCoordinator)
		Expect(ok).To(BeTrue())
		Expect(rt.TimeScale()).To(Equal(0.5))
	})

	It("should measure the time spent in each phase", func() {
		top, _, _ := buildClockModel()

		sim, err := experiment.MakeBuilder().WithPhaseTime().Build(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.PhaseTime()).To(BeNil())

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateIterations(3)).To(Succeed())
		Expect(sim.Terminate()).To(Succeed())

		Expect(sim.PhaseTime().PhaseTime("top.clock", modeling.PhaseActive)).
			To(Equal(3.0))
		Expect(sim.PhaseTime().TotalTime(modeling.PhasePassive)).To(Equal(3.0))
	})

	It("should flatten the model on request", func() {
		root := modeling.NewCoupledBase("root")
		inner, c, s := buildClockModel()
		Expect(root.AddComponent(inner)).To(Succeed())

		sim, err := experiment.MakeBuilder().WithFlatten(true).Build(root)
		Expect(err).NotTo(HaveOccurred())

		_, numCoupled := sim.Model().CountComponents()
		Expect(numCoupled).To(Equal(1))
		Expect(c.QualifiedName()).To(Equal("root.clock"))

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateIterations(2)).To(Succeed())
		Expect(s.received).To(Equal([]int{0, 1}))
	})

	It("should not open a browser without a monitor", func() {
		top, _, _ := buildClockModel()

		Expect(func() {
			_, _ = experiment.MakeBuilder().WithOpenBrowser().Build(top)
		}).To(Panic())
	})

	It("should count transitions", func() {
		top, _, _ := buildClockModel()
		sim, err := experiment.MakeBuilder().
			WithKind(experiment.Parallel).
			WithTransitionCount().
			Build(top)
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateIterations(4)).To(Succeed())
		Expect(sim.Terminate()).To(Succeed())

		Expect(sim.Counter().Count("top.clock", simulation.TransitionInternal)).
			To(Equal(uint64(4)))
		Expect(sim.Counter().Count("top.sink", simulation.TransitionExternal)).
			To(Equal(uint64(4)))
	})

	It("should let the models exit on terminate", func() {
		top, c, _ := buildClockModel()
		sim, err := experiment.MakeBuilder().Build(top)
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.Terminate()).To(Succeed())
		Expect(c.exited).To(BeTrue())
	})

	It("should record the traces of the run", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		top, _, _ := buildClockModel()
		sim, err := experiment.MakeBuilder().
			WithRunID("recorded").
			WithRecording(path).
			Build(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.DataRecorder().ListTables()).To(Equal([]string{
			tracing.TransitionTable, tracing.OutputTable,
		}))

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateIterations(2)).To(Succeed())
		Expect(sim.Terminate()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()
		Expect(reader.MapTable(tracing.OutputTable, tracing.OutputRecord{})).
			To(Succeed())

		rows, total, err := reader.Query(context.Background(),
			tracing.OutputTable, datarecording.QueryParams{OrderBy: "Time"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2))
		Expect(rows[1]).To(Equal(&tracing.OutputRecord{
			RunID: "recorded",
			Time:  2,
			Model: "top.clock",
			Port:  "out",
			Value: "1",
		}))
	})

	It("should fail when the recording file exists", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		recorder, err := datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Close()).To(Succeed())

		top, _, _ := buildClockModel()
		_, err = experiment.MakeBuilder().WithRecording(path).Build(top)
		Expect(err).To(MatchError(datarecording.ErrFileExists))
	})

	It("should serve a monitor with the progress of the run", func() {
		top, _, _ := buildClockModel()
		sim, err := experiment.MakeBuilder().
			WithRunID("monitored").
			WithMonitor(0).
			Build(top)
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(sim.Terminate()).To(Succeed()) }()

		Expect(sim.Initialize()).To(Succeed())
		Expect(sim.SimulateIterations(3)).To(Succeed())

		rsp, err := http.Get(sim.Monitor().URL() + "/api/progress")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()
		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		var bars []monitoring.ProgressBarSnapshot
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("monitored"))
		Expect(bars[0].Total).To(Equal(uint64(3)))
		Expect(bars[0].Finished).To(Equal(uint64(3)))
	})
})
