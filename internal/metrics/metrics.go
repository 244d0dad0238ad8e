package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// PredictionsTotal запросы детекции по задаче и результату.
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "viewer",
		Name:      "predictions_total",
		Help:      "Prediction requests by task and result.",
	}, []string{"task", "result"})

	// PredictionsDiscarded результаты, устаревшие к моменту применения.
	PredictionsDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "viewer",
		Name:      "predictions_discarded_total",
		Help:      "Prediction results dropped because the image or task changed before they were applied.",
	})

	// AnalysesTotal запросы анализа повреждений по результату.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "viewer",
		Name:      "damage_analyses_total",
		Help:      "Damage analysis requests by result.",
	}, []string{"result"})

	// ChatTurnsTotal реплики чата по результату.
	ChatTurnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Report chat turns by result.",
	}, []string{"result"})

	// DocumentsTotal собранные PDF-отчёты по результату.
	DocumentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "document",
		Name:      "built_total",
		Help:      "PDF reports built, labeled by result.",
	}, []string{"result"})

	// AssetFailuresTotal изображения, не попавшие в отчёт.
	AssetFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage_portal",
		Subsystem: "document",
		Name:      "asset_failures_total",
		Help:      "Images omitted from PDF reports, labeled by asset.",
	}, []string{"asset"})

	// BackendDurationSeconds время ответа внешних сервисов.
	BackendDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "damage_portal",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency by operation.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"op"})
)

// Register регистрирует метрики в реестре по умолчанию. Повторный вызов безопасен.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			PredictionsTotal,
			PredictionsDiscarded,
			AnalysesTotal,
			ChatTurnsTotal,
			DocumentsTotal,
			AssetFailuresTotal,
			BackendDurationSeconds,
		)
	})
}

// Result метка результата для счётчиков.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
