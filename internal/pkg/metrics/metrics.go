package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecafe_sessions_started_total",
		Help: "Device sessions started, by device type.",
	}, []string{"device_type"})

	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecafe_sessions_ended_total",
		Help: "Device sessions ended, by device type.",
	}, []string{"device_type"})

	ControllerChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecafe_controller_changes_total",
		Help: "Mid-session controller count changes recorded.",
	})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecafe_payments_recorded_total",
		Help: "Payments accepted, by kind (full or partial).",
	}, []string{"kind"})

	OverpaymentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecafe_overpayments_rejected_total",
		Help: "Partial-payment batches rejected for exceeding item quantity.",
	})
)
