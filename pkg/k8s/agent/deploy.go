/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"

	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

// Deploy deploys the agent with all required resources. This is the main
// entry point that orchestrates the deployment: secret, service account,
// RBAC, rendered config map, and finally the daemonset, which is waited
// to readiness.
func (d *Deployer) Deploy(ctx context.Context) error {
	start := time.Now()

	if _, err := d.CheckPermissions(ctx); err != nil {
		return fmt.Errorf("insufficient permissions to deploy agent: %w", err)
	}

	if err := d.deploy(ctx); err != nil {
		deployTotal.WithLabelValues(metricError).Inc()
		return err
	}

	deployTotal.WithLabelValues(metricSuccess).Inc()
	deployDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (d *Deployer) deploy(ctx context.Context) error {
	if err := d.ensureSecret(ctx); err != nil {
		return fmt.Errorf("failed to create Secret: %w", err)
	}

	if err := d.ensureServiceAccount(ctx); err != nil {
		return fmt.Errorf("failed to create ServiceAccount: %w", err)
	}

	if err := d.ensureClusterRoleAndBinding(ctx); err != nil {
		return fmt.Errorf("failed to create ClusterRole resources: %w", err)
	}

	if err := d.replaceConfigMap(ctx); err != nil {
		return fmt.Errorf("failed to create ConfigMap: %w", err)
	}

	if err := d.replaceDaemonSet(ctx); err != nil {
		return fmt.Errorf("failed to create DaemonSet: %w", err)
	}

	return nil
}

// Delete removes the daemonset and config map. The secret, service
// account, cluster role, and binding persist so the next deployment in
// the same cluster can reuse them.
func (d *Deployer) Delete(ctx context.Context) error {
	if err := d.deleteDaemonSet(ctx); err != nil {
		return fmt.Errorf("failed to delete DaemonSet: %w", err)
	}

	if err := d.deleteConfigMap(ctx); err != nil {
		return fmt.Errorf("failed to delete ConfigMap: %w", err)
	}

	return nil
}

// loadObject reads a manifest file and decodes its single document,
// requiring the expected kind.
func loadObject(path string, want resource.Kind) (resource.Object, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return resource.Object{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	obj, err := resource.Decode(content)
	if err != nil {
		return resource.Object{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if obj.Kind != want {
		return resource.Object{}, fmt.Errorf("manifest %s holds a %s, expected %s", path, obj.Kind, want)
	}
	return obj, nil
}

// ignoreAlreadyExists returns nil if the error is "already exists",
// otherwise returns the error. Used to make resource creation idempotent.
func ignoreAlreadyExists(err error) error {
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}
