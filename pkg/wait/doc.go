// Package wait provides the blocking readiness polls the harness is built
// on. Cluster boots, nested services, and agent rollouts are all observed
// the same way: probe a condition at a fixed interval until it holds or a
// deadline passes.
//
// The polls are deliberately simple sleep loops. Conditions are evaluated
// immediately, then once per interval, so a caller can reason about how
// many probes fit in a window. Results are plain booleans; conditions that
// fail by error simply report false and are probed again.
//
// Typical use:
//
//	if !wait.For(ctx, wait.TCPPortOpen(ip, 8443), defaults.WaitTimeout, defaults.WaitInterval) {
//		return errors.New(errors.ErrCodeTimeout, "kubernetes api never came up")
//	}
package wait
