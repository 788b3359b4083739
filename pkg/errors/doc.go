// Package errors provides structured error types for the test harness.
//
// Errors carry a code for programmatic handling (timeouts, version
// rejections, transient infrastructure failures), a human-readable message,
// the wrapped cause, and optional diagnostic context such as captured
// container logs:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "timed out waiting for the minikube cluster to be ready",
//	    ctx.Err(),
//	    map[string]any{"container": name, "logs": logs},
//	)
package errors
