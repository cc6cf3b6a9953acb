package tracing

import (
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/vmmgr/datarecording"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
	"github.com/tebeka/atexit"
)

// Tables written by the DBTracer.
const (
	TranslationTable = "translations"
	SummaryTable     = "summary"
)

// A TranslationRecord is the row stored for each translation. EvictedPage
// and EvictedFrame are -1 when nothing was evicted.
type TranslationRecord struct {
	RunID        string
	ID           string
	Tick         uint64
	Logical      uint16
	Page         uint8
	Offset       uint8
	Frame        uint8
	Physical     uint16
	Value        int8
	Outcome      string
	EvictedPage  int
	EvictedFrame int
}

// A SummaryRecord is the row stored at the end of a run.
type SummaryRecord struct {
	RunID     string
	Count     uint64
	Hits      uint64
	Faults    uint64
	HitRate   float64
	FaultRate float64
}

// Summary converts the record back into a stats summary.
func (r SummaryRecord) Summary() stats.Summary {
	return stats.Summary{
		Count:     r.Count,
		Hits:      r.Hits,
		Faults:    r.Faults,
		HitRate:   r.HitRate,
		FaultRate: r.FaultRate,
	}
}

// DBTracer stores every translation into a DataRecorder.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder
	runID   string
	count   uint64
}

// NewDBTracer creates the tables in the recorder and returns a tracer that
// fills them. Buffered rows are flushed at exit.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable(TranslationTable, TranslationRecord{})
	dataRecorder.CreateTable(SummaryTable, SummaryRecord{})

	t := &DBTracer{
		backend: dataRecorder,
		runID:   xid.New().String(),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// RunID identifies the rows written by this tracer.
func (t *DBTracer) RunID() string {
	return t.runID
}

// NumRecorded returns the number of translations recorded.
func (t *DBTracer) NumRecorded() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Translated records the translation.
func (t *DBTracer) Translated(tr addresstranslator.Translation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := TranslationRecord{
		RunID:        t.runID,
		ID:           tr.ID,
		Tick:         tr.Tick,
		Logical:      uint16(tr.Logical),
		Page:         uint8(tr.Page),
		Offset:       tr.Offset,
		Frame:        uint8(tr.Frame),
		Physical:     uint16(tr.Physical),
		Value:        tr.Value,
		Outcome:      tr.Outcome.String(),
		EvictedPage:  -1,
		EvictedFrame: -1,
	}

	if tr.Eviction != nil {
		record.EvictedPage = int(tr.Eviction.Page)
		record.EvictedFrame = int(tr.Eviction.Frame)
	}

	t.backend.InsertData(TranslationTable, record)
	t.count++
}

// RecordSummary stores the final statistics of the run.
func (t *DBTracer) RecordSummary(s stats.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(SummaryTable, SummaryRecord{
		RunID:     t.runID,
		Count:     s.Count,
		Hits:      s.Hits,
		Faults:    s.Faults,
		HitRate:   s.HitRate,
		FaultRate: s.FaultRate,
	})
}

// Terminate flushes the buffered rows.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
