/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package defaults

import "time"

// Polling defaults for readiness checks.
const (
	// WaitTimeout is the default deadline for a single readiness wait.
	WaitTimeout = 30 * time.Second

	// WaitInterval is the delay between readiness probe attempts.
	WaitInterval = 200 * time.Millisecond

	// EnsureWindow is how long a condition must keep holding before a
	// deployment stage is considered settled.
	EnsureWindow = 5 * time.Second
)

// Cluster timeouts for the minikube container lifecycle.
const (
	// ClusterTimeout bounds container startup, image builds, and agent
	// image pulls. MINIKUBE_IMAGE_TIMEOUT overrides it at runtime.
	ClusterTimeout = 5 * time.Minute

	// ClusterPollInterval is the probe interval for container state and
	// kubeconfig existence while the cluster boots.
	ClusterPollInterval = 2 * time.Second

	// KubeconfigSettleDelay is the pause after the kubeconfig file
	// appears before reading it. The bootstrapper writes the file
	// before the credentials in it are complete.
	KubeconfigSettleDelay = 2 * time.Second
)

// Kubernetes timeouts for API operations.
const (
	// DeleteTimeout bounds waiting for a deleted resource to disappear.
	DeleteTimeout = 30 * time.Second

	// DeletePollInterval is the probe interval for deletion waits.
	DeletePollInterval = 500 * time.Millisecond

	// RolloutTimeout bounds waiting for a deployment to become available.
	RolloutTimeout = 2 * time.Minute
)

// Retry parameters for transient failures.
const (
	// RetryAttempts is how many times a transient operation is attempted
	// before its last error is returned.
	RetryAttempts = 5

	// RetryDelay is the pause between retry attempts.
	RetryDelay = 2 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the total timeout for release channel lookups.
	HTTPClientTimeout = 30 * time.Second
)
