/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"

	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

// rolloutPollInterval is how often a waited deployment is re-read.
const rolloutPollInterval = 500 * time.Millisecond

// waitDeploymentRollout blocks until the deployment reports a completed
// rollout or the timeout lapses. On timeout the deployment and pod
// descriptions are logged before the error is returned.
func waitDeploymentRollout(ctx context.Context, clientset kubernetes.Interface, obj resource.Object, timeout time.Duration, describer Describer) error {
	name, namespace := obj.Name(), obj.Namespace()
	slog.Info("waiting for deployment rollout",
		slog.String("deployment", name),
		slog.String("namespace", namespace),
		slog.Duration("timeout", timeout))

	start := time.Now()
	err := wait.PollUntilContextTimeout(ctx, rolloutPollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			dep, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return false, nil // not visible yet, keep polling
			}
			if err != nil {
				return false, err
			}
			return rolloutComplete(dep), nil
		},
	)
	rolloutWaitDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		slog.Info("deployment rollout complete",
			slog.String("deployment", name),
			slog.Duration("waited", time.Since(start).Round(time.Second)))
		return nil
	}

	dumpRolloutDiagnostics(ctx, clientset, describer, name, namespace)
	return errors.Wrap(errors.ErrCodeTimeout,
		fmt.Sprintf("deployment %s/%s did not complete rollout within %s", namespace, name, timeout), err)
}

// rolloutComplete reports whether the deployment's status has caught up
// with its spec: generation observed and every replica updated, ready,
// and available.
func rolloutComplete(dep *appsv1.Deployment) bool {
	if dep.Status.ObservedGeneration < dep.Generation {
		return false
	}
	want := int32(1)
	if dep.Spec.Replicas != nil {
		want = *dep.Spec.Replicas
	}
	return dep.Status.UpdatedReplicas == want &&
		dep.Status.ReadyReplicas == want &&
		dep.Status.AvailableReplicas == want
}

// dumpRolloutDiagnostics logs the deployment description and the state
// of every pod in the namespace. kubectl-style output comes from the
// Describer when one is set; pod phases from the clientset otherwise.
func dumpRolloutDiagnostics(ctx context.Context, clientset kubernetes.Interface, describer Describer, name, namespace string) {
	if describer != nil {
		if out, err := describer.Describe(ctx, "deployment", name, namespace); err == nil {
			slog.Error("deployment not ready",
				slog.String("deployment", name),
				slog.String("describe", out))
		}
	}

	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Error("failed to list pods for diagnostics", slog.String("error", err.Error()))
		return
	}
	for i := range pods.Items {
		pod := &pods.Items[i]
		if describer != nil {
			if out, err := describer.Describe(ctx, "pod", pod.Name, namespace); err == nil {
				slog.Error("pod state", slog.String("pod", pod.Name), slog.String("describe", out))
				continue
			}
		}
		slog.Error("pod state",
			slog.String("pod", pod.Name),
			slog.String("phase", string(pod.Status.Phase)))
	}
}
