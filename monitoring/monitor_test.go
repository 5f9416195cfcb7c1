package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/devs/hooking"
	"github.com/sarchlab/devs/simulation"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		coord  *simulation.Coordinator
		server *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	BeforeEach(func() {
		var err error
		coord, err = simulation.NewCoordinator(buildBeeperModel())
		Expect(err).NotTo(HaveOccurred())
		Expect(coord.Initialize()).To(Succeed())

		m = NewMonitor()
		m.profileDuration = 10 * time.Millisecond
		m.RegisterCoordinator(coord)

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should list every component of the tree", func() {
		status, body := get("/api/list_components")
		Expect(status).To(Equal(http.StatusOK))

		var names []string
		Expect(json.Unmarshal(body, &names)).To(Succeed())
		Expect(names).To(Equal([]string{
			"top", "top.b0", "top.inner", "top.inner.b1",
		}))
	})

	It("should report the simulation time", func() {
		Expect(coord.SimulateIterations(3)).To(Succeed())

		status, body := get("/api/now")
		Expect(status).To(Equal(http.StatusOK))

		var rsp nowRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.Now).To(Equal(3.0))
		Expect(rsp.Iterations).To(Equal(int64(3)))
		Expect(rsp.Paused).To(BeFalse())
	})

	It("should serialize a component", func() {
		status, body := get("/api/component/top.b0")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should return 404 for unknown components", func() {
		status, _ := get("/api/component/top.nothing")
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("should pause and continue the simulation", func() {
		status, _ := get("/api/pause")
		Expect(status).To(Equal(http.StatusOK))

		status, _ = get("/api/pause")
		Expect(status).To(Equal(http.StatusOK))

		done := make(chan error, 1)
		go func() {
			done <- coord.SimulateIterations(5)
		}()

		Consistently(coord.Iterations, 50*time.Millisecond).
			Should(BeZero())

		_, body := get("/api/now")
		var rsp nowRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.Paused).To(BeTrue())

		status, _ = get("/api/continue")
		Expect(status).To(Equal(http.StatusOK))

		Eventually(done).Should(Receive(BeNil()))
		Expect(coord.Iterations()).To(Equal(int64(5)))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("cycles", 10)
		coord.AcceptHook(NewProgressHook(bar))
		other := m.CreateProgressBar("other", 1)

		Expect(coord.SimulateIterations(4)).To(Succeed())
		m.CompleteProgressBar(other)

		status, body := get("/api/progress")
		Expect(status).To(Equal(http.StatusOK))

		var bars []ProgressBarSnapshot
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].ID).To(Equal(bar.ID))
		Expect(bars[0].Name).To(Equal("cycles"))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(4)))
		Expect(bars[0].InProgress).To(BeZero())
	})

	It("should count the running cycle as in progress", func() {
		bar := m.CreateProgressBar("cycles", 3)
		coord.AcceptHook(NewProgressHook(bar))

		var during []ProgressBarSnapshot
		coord.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == simulation.HookPosCycleStart {
				during = append(during, bar.Snapshot())
			}
		}))

		Expect(coord.SimulateIterations(3)).To(Succeed())

		Expect(during).To(HaveLen(3))
		for i, s := range during {
			Expect(s.InProgress).To(Equal(uint64(1)))
			Expect(s.Finished).To(Equal(uint64(i)))
		}

		s := bar.Snapshot()
		Expect(s.InProgress).To(BeZero())
		Expect(s.Finished).To(Equal(uint64(3)))
	})

	It("should report resources", func() {
		status, body := get("/api/resource")
		Expect(status).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		status, body := get("/api/profile")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should serve the page", func() {
		status, body := get("/")
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start and stop a server", func() {
		Expect(m.StartServer()).To(Succeed())
		defer func() { Expect(m.StopServer()).To(Succeed()) }()

		Expect(m.URL()).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(m.URL() + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should not start without a coordinator", func() {
		Expect(NewMonitor().StartServer()).To(MatchError(ErrNoCoordinator))
	})
})

var _ = Describe("ProgressBar", func() {
	It("should move items to finished", func() {
		bar := &ProgressBar{Total: 10}

		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		s := bar.Snapshot()
		Expect(s.InProgress).To(Equal(uint64(1)))
		Expect(s.Finished).To(Equal(uint64(3)))
	})
})
