/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/

// Package releases resolves Kubernetes release channels. The harness uses
// it to turn the version request "latest" into a concrete version number
// and to bound the versions it accepts.
package releases

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

// StableURL is the upstream index holding the current stable Kubernetes
// release as a bare "vX.Y.Z" line.
const StableURL = "https://storage.googleapis.com/kubernetes-release/release/stable.txt"

// envReleaseURL points lookups at an alternate release index.
const envReleaseURL = "K8S_RELEASE_URL"

// Config holds the release client settings. The zero value targets the
// upstream stable channel with the default timeout and retry policy.
type Config struct {
	// URL is the release index to query. StableURL when empty.
	URL string

	// Timeout bounds each individual request.
	Timeout time.Duration

	// Attempts and RetryDelay control the retry policy for transport
	// failures and non-OK responses.
	Attempts   int
	RetryDelay time.Duration
}

// Client queries a Kubernetes release index.
type Client struct {
	url      string
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	delay    time.Duration
}

// NewClient creates a release index client. Lookups share a politeness
// rate limiter so repeated calls across a test session do not hammer the
// upstream endpoint.
func NewClient(config Config) *Client {
	if config.URL == "" {
		config.URL = os.Getenv(envReleaseURL)
	}
	if config.URL == "" {
		config.URL = StableURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.HTTPClientTimeout
	}
	if config.Attempts == 0 {
		config.Attempts = defaults.RetryAttempts
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaults.RetryDelay
	}

	return &Client{
		url:      config.URL,
		http:     &http.Client{Timeout: config.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 3),
		attempts: config.Attempts,
		delay:    config.RetryDelay,
	}
}

// Latest returns the current stable Kubernetes version without the "v"
// prefix. Transport failures and non-OK responses are retried up to the
// configured attempts; an empty index body is a fatal error and is not
// retried.
func (c *Client) Latest(ctx context.Context) (string, error) {
	var body string
	err := wait.Retry(ctx, c.attempts, c.delay, func() error {
		var fetchErr error
		body, fetchErr = c.fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransient,
			fmt.Sprintf("failed to fetch latest version from %s", c.url), err)
	}

	latest := strings.TrimPrefix(strings.TrimSpace(body), "v")
	if latest == "" {
		return "", errors.Newf(errors.ErrCodeInvalidVersion,
			"empty release index response from %s", c.url)
	}
	return latest, nil
}

func (c *Client) fetch(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
