// Package metrics содержит метрики Prometheus приложения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ManualUpgradesTotal считает успешно завершённые ручные продления членства.
var ManualUpgradesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "membership_manual_upgrades_total",
	Help: "Total number of committed manual membership upgrades.",
})

// AuditWriteFailures считает неудачные записи в журнал действий.
var AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "membership_audit_write_failures_total",
	Help: "Total number of action history writes that failed and were discarded.",
})
