package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StoreCounter lock records store attempts
	StoreCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "storage",
			Name:      "store_total",
			Help:      "Total number of taken locks records stored.",
		}, []string{"status"})

	// LoadCounter lock records loads
	LoadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "storage",
			Name:      "load_total",
			Help:      "Total number of taken locks records loaded.",
		}, []string{"result"})

	// EvictCounter evicted records
	EvictCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "storage",
			Name:      "evict_total",
			Help:      "Total number of taken locks records evicted on build finish.",
		})

	// CollectCounter builds visited by taken locks collection
	CollectCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "locks",
			Name:      "collect_builds_total",
			Help:      "Total number of builds visited collecting taken locks.",
		}, []string{"source"})

	// UnavailableCounter wanted locks that can not be granted
	UnavailableCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "locks",
			Name:      "unavailable_total",
			Help:      "Total number of wanted locks reported unavailable.",
		}, []string{"type"})

	// UnresolvedValueCounter custom locks without free value
	UnresolvedValueCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "chain",
			Name:      "unresolved_value_total",
			Help:      "Total number of custom resource locks left without value.",
		}, []string{"resource"})

	// ResolveDurationHistogram chain resolution duration
	ResolveDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "buildlocks",
			Subsystem: "chain",
			Name:      "resolve_duration_seconds",
			Help:      "Bucketed histogram of build start locks resolution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		})

	// EventCounter build lifecycle events
	EventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "builds",
			Name:      "event_total",
			Help:      "Total number of build lifecycle events.",
		}, []string{"event"})

	// AdmittedCounter dispatched builds
	AdmittedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildlocks",
			Subsystem: "builds",
			Name:      "dispatch_total",
			Help:      "Total number of queued builds checked by dispatch.",
		}, []string{"status"})

	// BuildsGauge known builds by state
	BuildsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "buildlocks",
			Subsystem: "builds",
			Name:      "builds_total",
			Help:      "Total number of queued and running builds.",
		}, []string{"state"})
)

func init() {
	prometheus.MustRegister(StoreCounter)
	prometheus.MustRegister(LoadCounter)
	prometheus.MustRegister(EvictCounter)
	prometheus.MustRegister(CollectCounter)
	prometheus.MustRegister(UnavailableCounter)
	prometheus.MustRegister(UnresolvedValueCounter)
	prometheus.MustRegister(ResolveDurationHistogram)
	prometheus.MustRegister(EventCounter)
	prometheus.MustRegister(AdmittedCounter)
	prometheus.MustRegister(BuildsGauge)
}
