/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/signalfx/agent-test-harness/pkg/errors"
)

// PullAgentImage makes the agent image available to the nested Docker
// engine. A locally present image id wins, then a locally present
// name:tag, then a pull from the registry the name points at. It returns
// the reference the kubelet should use.
func (c *Cluster) PullAgentImage(ctx context.Context, name, tag, imageID string) (string, error) {
	if imageID != "" && c.nested.HasImage(ctx, imageID) {
		slog.Debug("agent image present by id", slog.String("id", imageID))
		return imageID, nil
	}
	ref := name + ":" + tag
	if c.nested.HasImage(ctx, ref) {
		slog.Debug("agent image present", slog.String("image", ref))
		return ref, nil
	}
	slog.Info("pulling agent image", slog.String("image", ref))
	if err := c.nested.PullImage(ctx, ref); err != nil {
		return "", errors.Wrap(errors.ErrCodeTransient, fmt.Sprintf("failed to pull %s", ref), err)
	}
	return ref, nil
}
