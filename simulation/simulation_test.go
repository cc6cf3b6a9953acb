package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmmgr/datarecording"
	"github.com/sarchlab/vmmgr/mem/mem"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
	"github.com/sarchlab/vmmgr/sim"
	"github.com/sarchlab/vmmgr/tracing"
)

type execInfoRow struct {
	Property string
	Value    string
}

type progressRow struct {
	Total      uint64 `json:"total"`
	Finished   uint64 `json:"finished"`
	InProgress uint64 `json:"in_progress"`
}

func listProgress(s *Simulation) []progressRow {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	s.GetMonitor().Handler().ServeHTTP(rec, req)
	Expect(rec.Code).To(Equal(http.StatusOK))

	var rows []progressRow
	Expect(json.Unmarshal(rec.Body.Bytes(), &rows)).To(Succeed())

	return rows
}

var _ = Describe("Simulation", func() {
	var (
		store   *mem.BytesBackingStore
		builder Builder
	)

	BeforeEach(func() {
		data := make([]byte, vm.BackingStoreSize)
		for i := range data {
			data[i] = byte(i)
		}

		var err error
		store, err = mem.NewBytesBackingStore(data)
		Expect(err).NotTo(HaveOccurred())

		builder = MakeBuilder().WithBackingStore(store)
	})

	It("should require a backing store", func() {
		Expect(func() { _, _ = MakeBuilder().Build() }).To(Panic())
	})

	It("should reject a monitor port without monitoring", func() {
		Expect(func() {
			_, _ = builder.WithMonitorPort(8080).Build()
		}).To(Panic())
	})

	It("should register the translator components", func() {
		s, err := builder.Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.Components()).To(HaveLen(3))
		Expect(s.GetComponentByName("VMM")).To(BeIdenticalTo(s.Translator()))
		Expect(s.GetComponentByName("VMM.TLB")).
			To(BeIdenticalTo(s.Translator().TLB()))
		Expect(s.GetComponentByName("Nope")).To(BeNil())
		Expect(func() { s.RegisterComponent(s.Translator()) }).To(Panic())
	})

	It("should translate every address in order", func() {
		s, err := builder.Build()
		Expect(err).NotTo(HaveOccurred())

		var got []addresstranslator.Translation
		err = s.Run(context.Background(),
			[]vm.LogicalAddress{16916, 62493, 16916},
			func(t addresstranslator.Translation) {
				got = append(got, t)
			})
		Expect(err).NotTo(HaveOccurred())

		Expect(got).To(HaveLen(3))
		Expect(got[0].Physical).To(Equal(vm.PhysicalAddress(20)))
		Expect(got[1].Physical).To(Equal(vm.PhysicalAddress(285)))
		Expect(got[2].Outcome).To(Equal(addresstranslator.TLBHit))
		Expect(s.Summary()).To(Equal(s.Translator().Stats().Summary()))
		Expect(s.Terminate()).To(Succeed())
	})

	It("should stop when the context is cancelled", func() {
		s, err := builder.Build()
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		count := 0
		err = s.Run(ctx, []vm.LogicalAddress{1, 2, 3},
			func(addresstranslator.Translation) {
				count++
				cancel()
			})

		Expect(err).To(MatchError(context.Canceled))
		Expect(count).To(Equal(1))
	})

	It("should log translations and TLB events", func() {
		buf := new(bytes.Buffer)
		s, err := builder.
			WithTranslationLogger(log.New(buf, "", 0)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(context.Background(),
			[]vm.LogicalAddress{0}, nil)).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("page-fault"))
		Expect(buf.String()).To(ContainSubstring("1,VMM.TLB,"))
	})

	It("should record translations and the summary", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "run")
		s, err := builder.WithRecording(dbPath).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(context.Background(),
			[]vm.LogicalAddress{0, 1, 256}, nil)).To(Succeed())
		Expect(s.Terminate()).To(Succeed())
		Expect(s.GetDataRecorder()).To(BeNil())

		reader, err := datarecording.NewReader(dbPath + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(tracing.TranslationTable, tracing.TranslationRecord{})
		reader.MapTable(tracing.SummaryTable, tracing.SummaryRecord{})

		_, total, err := reader.Query(context.Background(),
			tracing.TranslationTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))

		summaries, _, err := reader.Query(context.Background(),
			tracing.SummaryTable, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(1))

		summary := summaries[0].(*tracing.SummaryRecord)
		Expect(summary.RunID).NotTo(BeEmpty())
		Expect(summary.Summary().Count).To(Equal(uint64(3)))
		Expect(summary.Summary().Faults).To(Equal(uint64(2)))
	})

	It("should fail when the recording already exists", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "run")
		first, err := builder.WithRecording(dbPath).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Terminate()).To(Succeed())

		_, err = builder.WithRecording(dbPath).Build()
		Expect(err).To(MatchError(datarecording.ErrDatabaseExists))
	})

	It("should serve statistics while monitored", func() {
		s, err := builder.WithMonitoring().Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.GetMonitor().StopServer(context.Background())

		Expect(s.MonitorURL()).To(HavePrefix("http://localhost:"))
		Expect(s.Run(context.Background(),
			[]vm.LogicalAddress{0, 0}, nil)).To(Succeed())

		rsp, err := http.Get(s.MonitorURL() + "/api/stats")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(s.Summary()).To(Equal(stats.Summary{
			Count: 2, Hits: 1, Faults: 1, HitRate: 50, FaultRate: 50,
		}))
	})

	It("should track translations on a progress bar", func() {
		s, err := builder.WithMonitoring().Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.GetMonitor().StopServer(context.Background())

		var during, after []progressRow
		s.Translator().AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == addresstranslator.HookPosTranslated {
				during = append(during, listProgress(s)...)
			}
		}))

		Expect(s.Run(context.Background(), []vm.LogicalAddress{0, 1},
			func(addresstranslator.Translation) {
				after = append(after, listProgress(s)...)
			})).To(Succeed())

		Expect(during).To(Equal([]progressRow{
			{Total: 2, Finished: 0, InProgress: 1},
			{Total: 2, Finished: 1, InProgress: 1},
		}))
		Expect(after).To(Equal([]progressRow{
			{Total: 2, Finished: 1, InProgress: 0},
			{Total: 2, Finished: 2, InProgress: 0},
		}))
		Expect(listProgress(s)).To(BeEmpty())
	})

	It("should remove the progress bar when cancelled", func() {
		s, err := builder.WithMonitoring().Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.GetMonitor().StopServer(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(s.Run(ctx, []vm.LogicalAddress{0}, nil)).
			To(MatchError(context.Canceled))
		Expect(listProgress(s)).To(BeEmpty())
	})

	It("should close the recording if the monitor cannot start", func() {
		l, err := net.Listen("tcp", ":0")
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		dbPath := filepath.Join(GinkgoT().TempDir(), "run")
		s, err := builder.
			WithRecording(dbPath).
			WithMonitoring().
			WithMonitorPort(l.Addr().(*net.TCPAddr).Port).
			Build()

		Expect(s).To(BeNil())
		Expect(err).To(MatchError(ContainSubstring("start monitoring server")))

		reader, err := datarecording.NewReader(dbPath + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable("exec_info", execInfoRow{})
		rows, _, err := reader.Query(context.Background(), "exec_info",
			datarecording.QueryParams{
				Where: "Property = ?",
				Args:  []any{"Build Error"},
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].(*execInfoRow).Value).
			To(ContainSubstring("start monitoring server"))
	})
})
