package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpDurationHistogram     *prometheus.HistogramVec
	journalAppendCounter      *prometheus.CounterVec
	snapshotCounter           *prometheus.CounterVec
	deliveryCounter           *prometheus.CounterVec
	admissionCounter          *prometheus.CounterVec
	transferFinishedCounter   *prometheus.CounterVec
	invariantViolationCounter *prometheus.CounterVec
	workerRunCounter          *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		journalAppendCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_appends_total",
			Help: "Entity event appends by entity kind and result",
		}, []string{"entity", "result"})

		snapshotCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshots_total",
			Help: "Snapshot writes by result",
		}, []string{"result"})

		deliveryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Saga message transmissions, first sends and redeliveries",
		}, []string{"kind"})

		admissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_total",
			Help: "Transfer admission outcomes at the account manager",
		}, []string{"outcome"})

		transferFinishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfers_finished_total",
			Help: "Transfers that reached a terminal status",
		}, []string{"status"})

		invariantViolationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_invariant_violations_total",
			Help: "Account invariant violations found by reconciliation",
		}, []string{"invariant"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			journalAppendCounter,
			snapshotCounter,
			deliveryCounter,
			admissionCounter,
			transferFinishedCounter,
			invariantViolationCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementJournalAppend(entity string, err error) {
	if journalAppendCounter == nil {
		return
	}
	journalAppendCounter.WithLabelValues(entity, result(err)).Inc()
}

func IncrementSnapshot(err error) {
	if snapshotCounter == nil {
		return
	}
	snapshotCounter.WithLabelValues(result(err)).Inc()
}

// IncrementDelivery counts a saga transmission; kind is "first" or "redelivery".
func IncrementDelivery(kind string) {
	if deliveryCounter == nil {
		return
	}
	deliveryCounter.WithLabelValues(kind).Inc()
}

func IncrementAdmission(outcome string) {
	if admissionCounter == nil {
		return
	}
	admissionCounter.WithLabelValues(outcome).Inc()
}

func IncrementTransferFinished(status string) {
	if transferFinishedCounter == nil {
		return
	}
	transferFinishedCounter.WithLabelValues(status).Inc()
}

func IncrementInvariantViolation(invariant string) {
	if invariantViolationCounter == nil {
		return
	}
	invariantViolationCounter.WithLabelValues(invariant).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
