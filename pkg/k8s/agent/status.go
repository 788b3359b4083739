/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// execFunc runs a command in a pod and returns its combined output.
// Swappable so Status is testable without an SPDY transport.
type execFunc func(ctx context.Context, clientset kubernetes.Interface, config *rest.Config, namespace, pod, container string, command []string) (string, error)

// Status runs the status command in every agent pod and concatenates the
// output under "pod/<name>:" headers. The first exec failure aborts.
// With no arguments the DefaultStatusCommand is used.
func (d *Deployer) Status(ctx context.Context, command ...string) (string, error) {
	if len(command) == 0 {
		command = DefaultStatusCommand
	}

	var sb strings.Builder
	for i := range d.pods {
		pod := &d.pods[i]
		out, err := d.execInPod(ctx, d.clientset, d.restConfig, d.opts.Namespace, pod.Name, "", command)
		if err != nil {
			return "", fmt.Errorf("failed to exec in pod %s: %w", pod.Name, err)
		}
		fmt.Fprintf(&sb, "pod/%s:\n%s\n", pod.Name, out)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Logs fetches every agent pod's logs, concatenated under "pod/<name>"
// headers.
func (d *Deployer) Logs(ctx context.Context) (string, error) {
	var sb strings.Builder
	for i := range d.pods {
		pod := &d.pods[i]
		content, err := d.podLogs(ctx, pod.Name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "pod/%s\n%s\n", pod.Name, content)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (d *Deployer) podLogs(ctx context.Context, name string) (string, error) {
	req := d.clientset.CoreV1().Pods(d.opts.Namespace).GetLogs(name, &corev1.PodLogOptions{})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stream logs for pod %s: %w", name, err)
	}
	defer stream.Close()

	content, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("failed to read logs for pod %s: %w", name, err)
	}
	return string(content), nil
}
