package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmmgr/mem/vm/stats"
)

type sampleComponent struct {
	name  string
	Count int
}

func (c *sampleComponent) Name() string {
	return c.name
}

type fixedStats struct {
	summary stats.Summary
}

func (s fixedStats) Summary() stats.Summary {
	return s.summary
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		m = NewMonitor()
		handler = m.Handler()
	})

	It("should fall back to a random port for privileged ports", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))

		m.WithPortNumber(minPortNumber - 1)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(minPortNumber)
		Expect(m.portNumber).To(Equal(minPortNumber))
	})

	It("should list components", func() {
		m.RegisterComponent(&sampleComponent{name: "VMM"})
		m.RegisterComponent(&sampleComponent{name: "VMM.TLB"})

		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["VMM","VMM.TLB"]`))
	})

	It("should serialize a component", func() {
		m.RegisterComponent(&sampleComponent{name: "VMM", Count: 3})

		rec := get("/api/component/VMM")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Count"))
	})

	It("should report unknown components", func() {
		rec := get("/api/component/Nope")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/" + url.PathEscape("{not json"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should report statistics", func() {
		rec := get("/api/stats")
		Expect(rec.Code).To(Equal(http.StatusNotFound))

		m.RegisterStats(fixedStats{stats.Summary{
			Count: 4, Hits: 1, Faults: 2, HitRate: 25, FaultRate: 50,
		}})

		rec = get("/api/stats")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{
			"count": 4,
			"tlb_hits": 1,
			"page_faults": 2,
			"tlb_hit_rate": 25,
			"page_fault_rate": 50
		}`))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Translating", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		rec := get("/api/progress")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var bars []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Translating"))
		Expect(bars[0]["total"]).To(BeEquivalentTo(10))
		Expect(bars[0]["finished"]).To(BeEquivalentTo(2))
		Expect(bars[0]["in_progress"]).To(BeEquivalentTo(1))

		m.CompleteProgressBar(bar)

		rec = get("/api/progress")
		Expect(rec.Body.String()).To(MatchJSON(`[]`))
	})

	It("should report process resources", func() {
		rec := get("/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))

		rsp := resourceRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the web page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should run guarded functions and pass their errors", func() {
		called := false
		err := m.Guard(func() error {
			called = true
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(called).To(BeTrue())

		failure := errors.New("failed")
		Expect(m.Guard(func() error { return failure })).To(MatchError(failure))
	})

	It("should start and stop the server", func() {
		u, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(u + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		Expect(m.StopServer(context.Background())).To(Succeed())
	})

	It("should serve on the configured port", func() {
		l, err := net.Listen("tcp", ":0")
		Expect(err).NotTo(HaveOccurred())
		port := l.Addr().(*net.TCPAddr).Port
		Expect(l.Close()).To(Succeed())
		Expect(port).To(BeNumerically(">=", minPortNumber))

		u, err := m.WithPortNumber(port).StartServer()

		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal("http://localhost:" + strconv.Itoa(port)))
		Expect(m.StopServer(context.Background())).To(Succeed())
	})

	It("should fail if the configured port is taken", func() {
		l, err := net.Listen("tcp", ":0")
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		_, err = m.WithPortNumber(l.Addr().(*net.TCPAddr).Port).StartServer()

		Expect(err).To(MatchError(ContainSubstring("start monitoring server")))
	})
})
