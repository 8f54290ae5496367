package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AlertsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_bot_alerts_fired_total",
			Help: "Сработавшие алерты по стратегиям и направлениям.",
		},
		[]string{"strategy", "direction"},
	)

	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_bot_evaluations_total",
			Help: "Запуски оценки стратегий и их исход.",
		},
		[]string{"strategy", "outcome"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_bot_evaluation_seconds",
			Help:    "Длительность одного цикла оценки стратегии.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	CandleFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_bot_candle_fetches_total",
			Help: "REST-запросы свечей к бирже и их исход.",
		},
		[]string{"timeframe", "outcome"},
	)

	ActiveAlerts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alert_bot_active_alerts",
			Help: "Активные алерты по стратегиям (0/1).",
		},
		[]string{"strategy"},
	)

	WSTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_bot_ws_ticks_total",
			Help: "Закрытые свечи, принятые по WebSocket.",
		},
	)

	LastPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_bot_last_price",
			Help: "Последняя цена закрытия по стриму.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AlertsFired,
		Evaluations,
		EvaluationDuration,
		CandleFetches,
		ActiveAlerts,
		WSTicks,
		LastPrice,
	)
}
