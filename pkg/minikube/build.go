/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

const (
	envServicesDir     = "TEST_SERVICES_DIR"
	defaultServicesDir = "test-services"
)

func servicesDir() string {
	if dir := os.Getenv(envServicesDir); dir != "" {
		return dir
	}
	return defaultServicesDir
}

// resolveBuildDir locates a Dockerfile directory, preferring the services
// directory over a literal path.
func resolveBuildDir(dir string) (string, error) {
	joined := filepath.Join(servicesDir(), dir)
	if isDir(joined) {
		return joined, nil
	}
	if isDir(dir) {
		return dir, nil
	}
	return "", errors.Newf(errors.ErrCodeNotFound, "dockerfile directory %s not found", dir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func buildWithRetry(ctx context.Context, engine docker.Engine, dir string, opts docker.BuildOptions, attempts int, delay time.Duration) (string, error) {
	var id string
	err := wait.Retry(ctx, attempts, delay, func() error {
		var buildErr error
		id, buildErr = engine.BuildImage(ctx, dir, opts)
		return buildErr
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransient,
			fmt.Sprintf("failed to build image from %s", dir), err)
	}
	return id, nil
}

func (c *connector) buildImage(ctx context.Context, dir string, opts docker.BuildOptions) (string, error) {
	resolved, err := resolveBuildDir(dir)
	if err != nil {
		return "", err
	}
	return buildWithRetry(ctx, c.host, resolved, opts, c.retryAttempts, c.retryDelay)
}

// BuildImage builds an image on the cluster's nested Docker engine so the
// result is directly runnable by the kubelet. The directory resolves
// against TEST_SERVICES_DIR first, then as given.
func (c *Cluster) BuildImage(ctx context.Context, dir string, opts docker.BuildOptions) (string, error) {
	resolved, err := resolveBuildDir(dir)
	if err != nil {
		return "", err
	}
	return buildWithRetry(ctx, c.nested, resolved, opts, c.retryAttempts, c.retryDelay)
}
