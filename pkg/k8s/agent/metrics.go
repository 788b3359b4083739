/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deployTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8stest_agent_deploy_total",
			Help: "Total number of agent daemonset deployments",
		},
		[]string{"status"}, // success or error
	)

	deployDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "k8stest_agent_deploy_duration_seconds",
			Help:    "Time from permission preflight to daemonset ready",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)
)

const (
	metricSuccess = "success"
	metricError   = "error"
)
