package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks per-entity pull and push runs.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	synced   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	pages    *prometheus.CounterVec
}

// NewSyncMetrics registers the sync engine metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of entity sync runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})
	synced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_records_total",
		Help: "Records upserted per entity sync.",
	}, []string{"entity"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_errors_total",
		Help: "Records skipped or failed per entity sync.",
	}, []string{"entity"})
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_pages_total",
		Help: "Remote pages consumed per entity sync.",
	}, []string{"entity"})
	reg.MustRegister(duration, synced, errs, pages)
	return &SyncMetrics{
		duration: duration,
		synced:   synced,
		errors:   errs,
		pages:    pages,
	}
}

// ObserveRun records the outcome of one entity sync run.
func (m *SyncMetrics) ObserveRun(entity string, synced, errors int, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	label := normalizeLabel(entity)
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
	m.synced.WithLabelValues(label).Add(float64(synced))
	m.errors.WithLabelValues(label).Add(float64(errors))
}

// IncPage counts one consumed remote page for the entity.
func (m *SyncMetrics) IncPage(entity string) {
	if m == nil || m.pages == nil {
		return
	}
	m.pages.WithLabelValues(normalizeLabel(entity)).Inc()
}
