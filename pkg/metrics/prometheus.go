package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик решателя
type Metrics struct {
	// Операции решения
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	ObjectiveValue       *prometheus.GaugeVec
	SolvesInFlight       prometheus.Gauge

	// Размер графа
	SnapshotInventoriesTotal *prometheus.HistogramVec
	SnapshotConvertersTotal  *prometheus.HistogramVec
	MergeReductionRatio      *prometheus.HistogramVec

	// Верификация
	VerificationViolationsTotal *prometheus.CounterVec

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	// Трекер активных вызовов ComputeRates
	InFlight *RequestTracker
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики решателя с заданным пространством имён
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		SolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of resource-flow solve operations",
			},
			[]string{"algorithm", "status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"algorithm"},
		),

		ObjectiveValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "objective_value",
				Help:      "Last maximized objective value (summed weighted converter utilization)",
			},
			[]string{"algorithm"},
		),

		SolvesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_in_flight",
				Help:      "Current number of ComputeRates calls being processed",
			},
		),

		SnapshotInventoriesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshot_inventories_total",
				Help:      "Number of physical inventories in processed snapshots",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"stage"},
		),

		SnapshotConvertersTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snapshot_converters_total",
				Help:      "Number of physical converters in processed snapshots",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"stage"},
		),

		MergeReductionRatio: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "merge_reduction_ratio",
				Help:      "Fraction of physical nodes absorbed during resource-graph merging",
				Buckets:   []float64{0, .1, .25, .5, .75, .9, 1},
			},
			[]string{"kind"},
		),

		VerificationViolationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verification_violations_total",
				Help:      "Total number of post-solve verification failures, by stage",
			},
			[]string{"stage"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	m.InFlight = NewRequestTracker(m.SolvesInFlight)
	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики, инициализируя их значениями по умолчанию при первом обращении
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("resourceflow", "solver")
	}
	return defaultMetrics
}

// RecordSolveOperation записывает метрики одной операции решения
func (m *Metrics) RecordSolveOperation(algorithm string, success bool, duration time.Duration, objectiveValue float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveOperationsTotal.WithLabelValues(algorithm, status).Inc()
	m.SolveDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	m.ObjectiveValue.WithLabelValues(algorithm).Set(objectiveValue)
}

// RecordSnapshotSize записывает размер снимка на заданном этапе пайплайна
// (например "raw" до слияния и "logical" после него). Долю узлов, поглощённых
// слиянием, записывает RecordMergeReduction.
func (m *Metrics) RecordSnapshotSize(stage string, inventories, converters int) {
	m.SnapshotInventoriesTotal.WithLabelValues(stage).Observe(float64(inventories))
	m.SnapshotConvertersTotal.WithLabelValues(stage).Observe(float64(converters))
}

// RecordMergeReduction записывает долю узлов заданного вида (inventory/converter),
// поглощённых слиянием: 1 - logical/raw.
func (m *Metrics) RecordMergeReduction(kind string, raw, logical int) {
	if raw == 0 {
		return
	}
	m.MergeReductionRatio.WithLabelValues(kind).Observe(1 - float64(logical)/float64(raw))
}

// RecordVerificationViolation записывает провал верификации на заданном этапе
func (m *Metrics) RecordVerificationViolation(stage string) {
	m.VerificationViolationsTotal.WithLabelValues(stage).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
