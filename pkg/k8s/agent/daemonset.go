/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"log/slog"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apiresource "k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

// replaceDaemonSet recreates the agent daemonset from its manifest and
// waits for it to come up. The agent container is capped to a 100m CPU
// request so it schedules on the single-node test cluster; the image is
// overridden when both name and tag are configured. An existing
// daemonset is always deleted first.
func (d *Deployer) replaceDaemonSet(ctx context.Context) error {
	obj, err := loadObject(d.opts.DaemonSetPath, resource.KindDaemonSet)
	if err != nil {
		return err
	}
	ds := obj.Raw.(*appsv1.DaemonSet)
	if len(ds.Spec.Template.Spec.Containers) == 0 {
		return fmt.Errorf("manifest %s defines no containers", d.opts.DaemonSetPath)
	}

	container := &ds.Spec.Template.Spec.Containers[0]
	container.Resources = corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU: apiresource.MustParse("100m"),
		},
	}
	if d.opts.ImageName != "" && d.opts.ImageTag != "" {
		container.Image = d.opts.ImageName + ":" + d.opts.ImageTag
	}

	obj.EnsureNamespace(d.opts.Namespace)
	d.daemonSetName = obj.Name()
	d.daemonSetLabels = ds.Spec.Selector.MatchLabels

	slog.Info("creating daemonset",
		slog.String("name", d.daemonSetName),
		slog.String("image", container.Image),
		slog.String("file", d.opts.DaemonSetPath))
	if err := d.resources.Replace(ctx, obj); err != nil {
		return err
	}
	return d.waitAgentReady(ctx)
}

// waitAgentReady blocks until the daemonset reports ready, requires the
// readiness to hold for the ensure window, then verifies every selected
// pod is individually ready. The resolved pods back Status and Logs.
func (d *Deployer) waitAgentReady(ctx context.Context) error {
	ready := func() bool { return d.daemonSetReady(ctx) }

	if !wait.For(ctx, ready, d.opts.ReadyTimeout, d.opts.PollInterval) {
		return errors.Newf(errors.ErrCodeTimeout,
			"daemonset %s did not become ready within %s", d.daemonSetName, d.opts.ReadyTimeout)
	}
	if !wait.Always(ctx, ready, d.opts.EnsureWindow, d.opts.PollInterval) {
		return errors.Newf(errors.ErrCodeInternal,
			"daemonset %s did not stay ready for %s", d.daemonSetName, d.opts.EnsureWindow)
	}

	selector := labels.SelectorFromSet(d.daemonSetLabels).String()
	pods, err := d.clientset.CoreV1().Pods(d.opts.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return fmt.Errorf("failed to list agent pods: %w", err)
	}
	if len(pods.Items) == 0 {
		return errors.New(errors.ErrCodeNotFound, "no agent pods found")
	}
	for i := range pods.Items {
		if !podReady(&pods.Items[i]) {
			return errors.Newf(errors.ErrCodeInternal, "agent pod %s is not ready", pods.Items[i].Name)
		}
	}
	d.pods = pods.Items

	slog.Info("agent daemonset ready",
		slog.String("name", d.daemonSetName),
		slog.Int("pods", len(d.pods)))
	return nil
}

// daemonSetReady reports whether every desired pod is scheduled and
// ready with none unavailable.
func (d *Deployer) daemonSetReady(ctx context.Context) bool {
	ds, err := d.clientset.AppsV1().DaemonSets(d.opts.Namespace).Get(ctx, d.daemonSetName, metav1.GetOptions{})
	if err != nil {
		return false
	}
	status := ds.Status
	return status.DesiredNumberScheduled > 0 &&
		status.NumberReady == status.DesiredNumberScheduled &&
		status.NumberUnavailable == 0
}

// podReady reports whether the pod's Ready condition is true.
func podReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// deleteDaemonSet deletes the agent daemonset if Deploy resolved one.
func (d *Deployer) deleteDaemonSet(ctx context.Context) error {
	if d.daemonSetName == "" {
		return nil
	}
	slog.Info("deleting daemonset", slog.String("name", d.daemonSetName))
	return d.resources.Delete(ctx, resource.FromTyped(&appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{Name: d.daemonSetName, Namespace: d.opts.Namespace},
	}))
}
