package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AuthorizationDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_authorization_decisions_total",
		Help: "Authorization decisions by panel, module, actor kind and outcome",
	}, []string{"panel", "module", "actor_kind", "outcome"})

	DecisionCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_decision_cache_lookups_total",
		Help: "Staff decision cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	LifecycleOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_lifecycle_operations_total",
		Help: "Soft delete, restore, purge, create and update operations by entity and result",
	}, []string{"entity", "operation", "result"})

	BulkItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_bulk_items_total",
		Help: "Items processed by bulk operations",
	}, []string{"entity", "operation", "result"})
)

func init() {
	prometheus.MustRegister(
		AuthorizationDecisions,
		DecisionCacheLookups,
		LifecycleOperations,
		BulkItems,
	)
}
