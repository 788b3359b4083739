/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package backend

// Datapoint is one metric sample received on the ingest listener.
type Datapoint struct {
	// Metric is the metric name.
	Metric string `json:"metric"`

	// MetricType is gauge, counter, or cumulative_counter, taken from
	// the submission batch key.
	MetricType string `json:"metricType,omitempty"`

	// Value is the sample value.
	Value float64 `json:"value"`

	// Dimensions are the key/value pairs attached to the sample.
	Dimensions map[string]string `json:"dimensions,omitempty"`

	// Timestamp is milliseconds since epoch, zero when the agent left
	// timestamping to the backend.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Event is one event received on the ingest listener.
type Event struct {
	// EventType identifies the event.
	EventType string `json:"eventType"`

	// Category is the event category.
	Category string `json:"category,omitempty"`

	// Dimensions are the key/value pairs attached to the event.
	Dimensions map[string]string `json:"dimensions,omitempty"`

	// Properties carry arbitrary event payload.
	Properties map[string]any `json:"properties,omitempty"`

	// Timestamp is milliseconds since epoch.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// datapointBatch is the wire shape of a datapoint submission: metric type
// to samples of that type.
type datapointBatch map[string][]Datapoint
