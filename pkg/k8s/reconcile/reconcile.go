/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"k8s.io/client-go/kubernetes"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

// Describer renders a human-readable description of a cluster object for
// failure diagnostics. The cluster container's kubectl backs it when a
// running cluster is available.
type Describer interface {
	Describe(ctx context.Context, kind, name, namespace string) (string, error)
}

// Options configures a manifest application.
type Options struct {
	// Files are the manifest files to apply, each possibly holding
	// multiple YAML documents.
	Files []string

	// Namespace is assigned to namespaced objects that do not carry one.
	Namespace string

	// Timeout bounds each deployment rollout wait. Zero means
	// defaults.RolloutTimeout.
	Timeout time.Duration

	// Describer, when set, supplies deployment and pod descriptions for
	// the rollout failure dump. Diagnostics fall back to clientset pod
	// phases when nil.
	Describer Describer
}

// Release records the objects a single Apply created, in application order.
type Release struct {
	client  *resource.Client
	applied []resource.Object
}

// Applied returns the recorded objects in application order.
func (r *Release) Applied() []resource.Object {
	return r.applied
}

// Apply reads and applies every manifest in opts.Files, then waits for
// each applied Deployment to complete its rollout. Objects that already
// exist are deleted and recreated. The returned Release is non-nil even
// on error so the caller can tear down whatever was applied before the
// failure.
func Apply(ctx context.Context, clientset kubernetes.Interface, opts Options) (*Release, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaults.RolloutTimeout
	}

	release := &Release{client: resource.NewClient(clientset)}
	for _, file := range opts.Files {
		content, err := os.ReadFile(file)
		if err != nil {
			return release, fmt.Errorf("failed to read manifest %s: %w", file, err)
		}
		objects, err := resource.DecodeFile(content)
		if err != nil {
			return release, fmt.Errorf("failed to parse manifest %s: %w", file, err)
		}
		for _, obj := range objects {
			obj.EnsureNamespace(opts.Namespace)
			slog.Info("applying object",
				slog.String("kind", obj.Kind.String()),
				slog.String("name", obj.Name()),
				slog.String("file", file))
			if err := release.client.Replace(ctx, obj); err != nil {
				applyTotal.WithLabelValues(obj.Kind.String(), metricError).Inc()
				return release, fmt.Errorf("failed to apply %s %q from %s: %w", obj.Kind, obj.Name(), file, err)
			}
			applyTotal.WithLabelValues(obj.Kind.String(), metricSuccess).Inc()
			release.applied = append(release.applied, obj)
		}
	}

	for _, obj := range release.applied {
		if obj.Kind != resource.KindDeployment {
			continue
		}
		if err := waitDeploymentRollout(ctx, clientset, obj, timeout, opts.Describer); err != nil {
			return release, err
		}
	}
	return release, nil
}

// Delete removes every recorded object in the order it was applied,
// absorbing objects that are already gone. Remaining objects are still
// attempted when one delete fails; the first failure is returned. The
// record is cleared either way.
func (r *Release) Delete(ctx context.Context) error {
	var firstErr error
	for _, obj := range r.applied {
		slog.Info("deleting object",
			slog.String("kind", obj.Kind.String()),
			slog.String("name", obj.Name()))
		if err := r.client.Delete(ctx, obj); err != nil {
			deleteTotal.WithLabelValues(obj.Kind.String(), metricError).Inc()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to delete %s %q: %w", obj.Kind, obj.Name(), err)
			}
			continue
		}
		deleteTotal.WithLabelValues(obj.Kind.String(), metricSuccess).Inc()
	}
	r.applied = nil
	return firstErr
}

// With applies the manifests, runs fn, and tears the manifests down when
// fn returns. Teardown always runs, on a background context, covering
// partial applies and body failures alike.
func With(ctx context.Context, clientset kubernetes.Interface, opts Options, fn func(ctx context.Context) error) error {
	release, err := Apply(ctx, clientset, opts)
	defer func() {
		if derr := release.Delete(context.Background()); derr != nil {
			slog.Warn("manifest teardown failed", slog.String("error", derr.Error()))
		}
	}()
	if err != nil {
		return err
	}
	return fn(ctx)
}
