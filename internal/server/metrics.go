package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolv_jobs_started_total",
		Help: "Optimization jobs started, by algorithm.",
	}, []string{"algorithm"})

	jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolv_jobs_completed_total",
		Help: "Optimization jobs that finished successfully, by algorithm.",
	}, []string{"algorithm"})

	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolv_jobs_failed_total",
		Help: "Optimization jobs that ended in failure, by algorithm.",
	}, []string{"algorithm"})

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evolv_jobs_running",
		Help: "Optimization jobs currently running.",
	})
)
