package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renewal_scan_runs_total",
		Help: "Количество запусков сканирования продлений.",
	})
	notificationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renewal_scan_notifications_created_total",
		Help: "Количество созданных уведомлений о продлении.",
	})
	dispatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renewal_scan_dispatch_failures_total",
		Help: "Количество неудачных отправок писем.",
	})
	itemErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renewal_scan_item_errors_total",
		Help: "Количество ошибок обработки отдельных подписок и выборок.",
	})
)
