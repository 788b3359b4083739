/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricSuccess = "success"
	metricError   = "error"
)

var (
	connectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8stest_cluster_connect_total",
			Help: "Total number of cluster connect attempts",
		},
		[]string{"status"}, // success or error
	)

	deployTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8stest_cluster_deploy_total",
			Help: "Total number of cluster deploy attempts",
		},
		[]string{"status"}, // success or error
	)

	bootDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "k8stest_cluster_boot_duration_seconds",
			Help:    "Time taken to bring a cluster to ready",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
)
