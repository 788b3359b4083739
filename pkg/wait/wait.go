/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package wait

import (
	"context"
	"time"
)

// Condition is a point-in-time readiness check. It may do network or API
// I/O; an errored check reports false and is probed again on the next
// interval.
type Condition func() bool

// For polls cond until it reports true or timeout elapses, and returns
// whether cond ever passed. The first evaluation happens immediately, later
// ones every interval. The deadline is only checked after a failed
// evaluation, so for a timeout T and interval I at least ⌊T/I⌋ evaluations
// happen before a false verdict.
//
// Cancelling ctx stops the poll early with a false verdict.
func For(ctx context.Context, cond Condition, timeout, interval time.Duration) bool {
	start := time.Now()
	for {
		if cond() {
			return true
		}
		if time.Since(start) > timeout {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}

// Always polls cond for the whole window and returns true only if every
// evaluation passed. The first failing evaluation returns false
// immediately. Like For, the first evaluation happens right away and the
// window is only checked after a passing one.
//
// Cancelling ctx before the window completes counts as a failure.
func Always(ctx context.Context, cond Condition, window, interval time.Duration) bool {
	start := time.Now()
	for {
		if !cond() {
			return false
		}
		if time.Since(start) > window {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
