// Package defaults provides centralized timing constants for the test
// harness.
//
// This package defines the timeout values, polling intervals, and retry
// parameters used across the codebase. Centralizing these values keeps the
// cluster lifecycle, readiness polling, and agent deployment stages
// consistent and makes tuning easier.
//
// # Timeout Categories
//
// Timeouts are organized by component:
//
//   - Polling defaults: readiness checks and settle windows
//   - Cluster timeouts: minikube container startup and boot probing
//   - Kubernetes timeouts: resource deletion and rollout waits
//   - Retry parameters: transient network failures
//   - HTTP client timeouts: release channel lookups
//
// # Usage
//
// Import and use constants directly:
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ClusterTimeout)
//	defer cancel()
//
// The cluster timeout may be overridden at runtime through the
// MINIKUBE_IMAGE_TIMEOUT environment variable, which the minikube package
// resolves; everything else is fixed at compile time.
package defaults
