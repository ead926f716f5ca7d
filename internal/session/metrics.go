package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_session_refresh_total",
			Help: "Refresh cycles by outcome",
		},
		[]string{"outcome"},
	)

	refreshWaiters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursehub_session_refresh_waiters_total",
			Help: "Callers that joined a refresh already in flight",
		},
	)

	replayTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_session_replay_total",
			Help: "Requests replayed after a refresh, by result",
		},
		[]string{"result"},
	)
)
