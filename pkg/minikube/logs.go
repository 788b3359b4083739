/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"

	"github.com/signalfx/agent-test-harness/pkg/docker"
)

// containerLogs renders the bootstrap log for error messages. It never
// fails; problems reading the log become part of the text.
func containerLogs(ctx context.Context, engine docker.Engine, name string) string {
	if _, running := engine.ContainerRunning(ctx, name); !running {
		return fmt.Sprintf("%s container is not running", name)
	}
	content, err := engine.FileContent(ctx, name, startLogPath)
	if err != nil {
		return fmt.Sprintf("failed to read %s from %s: %v", startLogPath, name, err)
	}
	return fmt.Sprintf("%s:\n%s", startLogPath, content)
}

// Logs returns the cluster container's bootstrap log.
func (c *Cluster) Logs(ctx context.Context) string {
	return containerLogs(ctx, c.host, c.Name)
}

// ContainerLogs returns the bootstrap log of the named cluster container.
// It works without a Cluster handle, so logs stay reachable when a
// cluster never finished booting.
func ContainerLogs(ctx context.Context, engine docker.Engine, name string) string {
	return containerLogs(ctx, engine, name)
}
