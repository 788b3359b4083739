/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/signalfx/agent-test-harness/pkg/errors"
)

func (e *dockerEngine) HasImage(ctx context.Context, ref string) bool {
	_, _, err := e.client.ImageInspectWithRaw(ctx, ref)
	return err == nil
}

func (e *dockerEngine) PullImage(ctx context.Context, ref string) error {
	body, err := e.client.ImagePull(ctx, ref, imagetypes.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer body.Close()

	// Drain the progress stream; it carries the terminal pull error, if any.
	if err := jsonmessage.DisplayJSONMessagesStream(body, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

func (e *dockerEngine) BuildImage(ctx context.Context, dir string, opts BuildOptions) (string, error) {
	if opts.Tag == "" {
		return "", errors.New(errors.ErrCodeInvalidRequest, "image build requires a tag")
	}

	buildContext, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to tar build context %s: %w", dir, err)
	}
	defer buildContext.Close()

	resp, err := e.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:        []string{opts.Tag},
		BuildArgs:   buildArgs(opts.BuildArgs),
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image %s from %s: %w", opts.Tag, dir, err)
	}
	defer resp.Body.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return "", fmt.Errorf("failed to build image %s from %s: %w", opts.Tag, dir, err)
	}
	return opts.Tag, nil
}

func buildArgs(args map[string]string) map[string]*string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]*string, len(args))
	for k, v := range args {
		value := v
		out[k] = &value
	}
	return out
}
