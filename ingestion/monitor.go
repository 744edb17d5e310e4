package ingestion

import (
	"time"

	"github.com/poiesic/pagewise/core"
)

// Monitor observes a batch run. Methods are called from several
// goroutines and must be safe for concurrent use.
type Monitor interface {
	// ItemsQueued reports that n items of origin are about to be processed.
	// For drive references it is called once resolution is done.
	ItemsQueued(origin core.Origin, n int)

	// ItemFinished reports the result of one item and how long it took.
	ItemFinished(origin core.Origin, result *core.ExtractionResult, elapsed time.Duration)

	// GroupPersisted reports the bulk write of one group.
	GroupPersisted(origin core.Origin, records int, err error)

	// Finished reports the final report of a run.
	Finished(report *core.BatchReport)
}

// NopMonitor ignores every event.
type NopMonitor struct{}

var _ Monitor = NopMonitor{}

func (NopMonitor) ItemsQueued(core.Origin, int)                                    {}
func (NopMonitor) ItemFinished(core.Origin, *core.ExtractionResult, time.Duration) {}
func (NopMonitor) GroupPersisted(core.Origin, int, error)                          {}
func (NopMonitor) Finished(*core.BatchReport)                                      {}

// monitors fans events out to several monitors in order.
type monitors []Monitor

func (m monitors) ItemsQueued(origin core.Origin, n int) {
	for _, mon := range m {
		mon.ItemsQueued(origin, n)
	}
}

func (m monitors) ItemFinished(origin core.Origin, result *core.ExtractionResult, elapsed time.Duration) {
	for _, mon := range m {
		mon.ItemFinished(origin, result, elapsed)
	}
}

func (m monitors) GroupPersisted(origin core.Origin, records int, err error) {
	for _, mon := range m {
		mon.GroupPersisted(origin, records, err)
	}
}

func (m monitors) Finished(report *core.BatchReport) {
	for _, mon := range m {
		mon.Finished(report)
	}
}
