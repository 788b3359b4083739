/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	applyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8stest_manifest_apply_total",
			Help: "Total number of manifest objects applied",
		},
		[]string{"kind", "status"}, // status: success or error
	)

	deleteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8stest_manifest_delete_total",
			Help: "Total number of manifest objects deleted during release teardown",
		},
		[]string{"kind", "status"},
	)

	rolloutWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "k8stest_deployment_rollout_wait_seconds",
			Help:    "Time spent waiting for deployment rollouts",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
)

const (
	metricSuccess = "success"
	metricError   = "error"
)
