// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"errors"
	"time"

	"github.com/poiesic/pagewise/core"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pagewise"

// Metrics records batch runs as Prometheus metrics. It is a Monitor, so
// it is attached to a coordinator with WithMonitor.
type Metrics struct {
	items         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	pages         *prometheus.CounterVec
	persisted     *prometheus.CounterVec
	persistErrors *prometheus.CounterVec
	batches       prometheus.Counter
}

var _ Monitor = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "items_total",
			Help:      "Batch items processed, by origin and outcome.",
		}, []string{"origin", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting one item.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"origin"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_total",
			Help:      "Pages produced by successful items.",
		}, []string{"origin"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persisted_records_total",
			Help:      "Records written to the persistence sink.",
		}, []string{"origin"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persist_failures_total",
			Help:      "Failed bulk writes to the persistence sink.",
		}, []string{"origin"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Completed batch runs.",
		}),
	}

	collectors := []prometheus.Collector{m.items, m.duration, m.pages, m.persisted, m.persistErrors, m.batches}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// ItemsQueued is not recorded.
func (m *Metrics) ItemsQueued(core.Origin, int) {}

// ItemFinished counts the item under its outcome: "success" or the error kind.
func (m *Metrics) ItemFinished(origin core.Origin, result *core.ExtractionResult, elapsed time.Duration) {
	outcome := "success"
	if result.Failed() {
		outcome = result.ErrorKind
	} else {
		m.pages.WithLabelValues(string(origin)).Add(float64(result.PageCount))
	}
	m.items.WithLabelValues(string(origin), outcome).Inc()
	m.duration.WithLabelValues(string(origin)).Observe(elapsed.Seconds())
}

// GroupPersisted counts written records or a failed write.
func (m *Metrics) GroupPersisted(origin core.Origin, records int, err error) {
	if err != nil {
		m.persistErrors.WithLabelValues(string(origin)).Inc()
		return
	}
	m.persisted.WithLabelValues(string(origin)).Add(float64(records))
}

// Finished counts the run.
func (m *Metrics) Finished(*core.BatchReport) {
	m.batches.Inc()
}
