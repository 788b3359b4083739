/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package wait

import (
	"context"
	"time"
)

// Retry runs fn up to attempts times, pausing delay between attempts, and
// returns nil as soon as fn succeeds. The last error is returned when all
// attempts fail. Cancelling ctx aborts between attempts with ctx.Err().
//
// Retry is for transient infrastructure failures: image builds, registry
// startup, release index fetches. Validation errors should not be retried;
// wrap fn to return nil-on-fatal if only some errors are transient.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
