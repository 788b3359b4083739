/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package client

import (
	"bytes"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// ExecInPod runs a command in a pod through the API server's exec
// subresource and returns the combined stdout and stderr. An empty
// container name targets the pod's first container.
func ExecInPod(ctx context.Context, clientset Interface, config *rest.Config, namespace, pod, container string, command []string) (string, error) {
	if config == nil {
		return "", fmt.Errorf("exec in pod %s/%s: no rest config", namespace, pod)
	}

	req := clientset.CoreV1().RESTClient().
		Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(config, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("failed to create executor for pod %s/%s: %w", namespace, pod, err)
	}

	var output bytes.Buffer
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &output,
		Stderr: &output,
	})
	if err != nil {
		return "", fmt.Errorf("failed to exec in pod %s/%s: %w", namespace, pod, err)
	}
	return output.String(), nil
}
