package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records snapshot and store-operation activity in the sync engine.
type SyncMetrics struct {
	snapshots *prometheus.CounterVec
	reloads   *prometheus.CounterVec
	storeOps  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_snapshots_applied_total",
		Help: "Full snapshots applied to a canonical collection.",
	}, []string{"entity"})
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_reload_failures_total",
		Help: "Failed reloads triggered by change notifications.",
	}, []string{"entity"})
	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operations_total",
		Help: "Record store operations by entity and operation.",
	}, []string{"entity", "op"})
	reg.MustRegister(snapshots, reloads, storeOps)
	return &SyncMetrics{
		snapshots: snapshots,
		reloads:   reloads,
		storeOps:  storeOps,
	}
}

// IncSnapshot counts one applied snapshot for the entity.
func (m *SyncMetrics) IncSnapshot(entity string) {
	if m == nil || m.snapshots == nil {
		return
	}
	m.snapshots.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncReloadFailure counts one failed snapshot reload for the entity.
func (m *SyncMetrics) IncReloadFailure(entity string) {
	if m == nil || m.reloads == nil {
		return
	}
	m.reloads.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncStoreOp counts one store operation.
func (m *SyncMetrics) IncStoreOp(entity, op string) {
	if m == nil || m.storeOps == nil {
		return
	}
	m.storeOps.WithLabelValues(normalizeLabel(entity), normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
