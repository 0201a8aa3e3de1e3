package pins

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bulletin",
		Name:      "pin_notifications_total",
		Help:      "Pin-change notifications handled, by transition.",
	}, []string{"transition"})

	repinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bulletin",
		Name:      "locked_repins_total",
		Help:      "Locked messages unpinned and re-pinned to restore their position.",
	})

	selfHealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bulletin",
		Name:      "locked_self_healed_total",
		Help:      "Locked entries dropped because the message no longer exists.",
	})

	migrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bulletin",
		Name:      "migrations_total",
		Help:      "Overflow migrations attempted, by result.",
	}, []string{"result"})

	webhooksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bulletin",
		Name:      "webhooks_created_total",
		Help:      "Webhooks provisioned on bulletin channels.",
	})
)
