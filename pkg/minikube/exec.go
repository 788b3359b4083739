/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"

	"github.com/signalfx/agent-test-harness/pkg/errors"
)

// ExecKubectl runs a kubectl command inside the cluster container and
// returns its combined output. A namespace scopes the command; an empty
// namespace runs it across all namespaces. The output comes back even
// when kubectl exits nonzero so callers can surface it in diagnostics.
func (c *Cluster) ExecKubectl(ctx context.Context, command, namespace string) (string, error) {
	full := "kubectl " + command
	if namespace != "" {
		full += " -n " + namespace
	} else {
		full += " --all-namespaces"
	}
	res, err := c.host.Exec(ctx, c.Name, []string{"/bin/sh", "-c", full})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("failed to exec kubectl in %s", c.Name), err)
	}
	return string(res.Output), nil
}

// Describe returns the kubectl describe output for one resource.
func (c *Cluster) Describe(ctx context.Context, kind, name, namespace string) (string, error) {
	return c.ExecKubectl(ctx, fmt.Sprintf("describe %s %s", kind, name), namespace)
}
