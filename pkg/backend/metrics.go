/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	datapointsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k8stest_backend_datapoints_total",
		Help: "Total number of datapoints received by the fake backend",
	})

	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "k8stest_backend_events_total",
		Help: "Total number of events received by the fake backend",
	})
)
