package tracing

import (
	"log"

	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
)

// LogTracer writes one line per translation to a logger.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Translated logs the translation outcome.
func (t *LogTracer) Translated(tr addresstranslator.Translation) {
	if tr.Eviction != nil {
		t.logger.Printf(
			"tick %d: address %d page %d %s, evicted page %d from frame %d",
			tr.Tick, tr.Logical, tr.Page, tr.Outcome,
			tr.Eviction.Page, tr.Eviction.Frame)

		return
	}

	t.logger.Printf("tick %d: address %d page %d %s, frame %d",
		tr.Tick, tr.Logical, tr.Page, tr.Outcome, tr.Frame)
}
