/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"path"
	"strconv"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

const (
	registryImage         = "registry:2.7"
	registryContainerName = "registry"
)

// RegistryAddr returns the host:port of the in-cluster registry.
func (c *Cluster) RegistryAddr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.RegistryPort))
}

// StartRegistry runs a Docker registry inside the cluster so tests can
// push images the kubelet pulls by the cluster-local address. It returns
// once the registry answers the distribution API.
func (c *Cluster) StartRegistry(ctx context.Context) error {
	slog.Info("starting registry", slog.Int("port", c.RegistryPort))
	run := func() error {
		_, err := c.nested.RunContainer(ctx, registryImage, docker.RunOptions{
			Name: registryContainerName,
			Env: map[string]string{
				"REGISTRY_HTTP_ADDR": fmt.Sprintf("0.0.0.0:%d", c.RegistryPort),
			},
			Ports: map[int]int{c.RegistryPort: c.RegistryPort},
		})
		return err
	}
	if err := wait.Retry(ctx, c.retryAttempts, c.retryDelay, run); err != nil {
		return errors.Wrap(errors.ErrCodeTransient, "failed to run the registry container", err)
	}

	if !wait.For(ctx, wait.TCPPortOpen(c.IP, c.RegistryPort), c.waitTimeout, c.waitInterval) {
		return errors.New(errors.ErrCodeTimeout, "timed out waiting for the registry to start")
	}

	reg, err := remote.NewRegistry(c.RegistryAddr())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create registry client", err)
	}
	reg.PlainHTTP = true
	if err := reg.Ping(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "registry is not serving the distribution api", err)
	}
	return nil
}

// MirrorImage copies an image from its upstream registry into the
// in-cluster registry, keeping its tag. The returned descriptor is the
// mirrored manifest.
func (c *Cluster) MirrorImage(ctx context.Context, src string) (ociv1.Descriptor, error) {
	named, err := reference.ParseNormalizedNamed(src)
	if err != nil {
		return ociv1.Descriptor{}, errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid image reference %q", src), err)
	}
	named = reference.TagNameOnly(named)
	tagged, ok := named.(reference.Tagged)
	if !ok {
		return ociv1.Descriptor{}, errors.Newf(errors.ErrCodeInvalidRequest,
			"image reference %q must carry a tag", src)
	}

	srcRepo, err := remote.NewRepository(reference.TrimNamed(named).Name())
	if err != nil {
		return ociv1.Descriptor{}, errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid source repository in %q", src), err)
	}

	dst := c.RegistryAddr() + "/" + path.Base(reference.Path(named))
	dstRepo, err := remote.NewRepository(dst)
	if err != nil {
		return ociv1.Descriptor{}, errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("invalid destination repository %q", dst), err)
	}
	dstRepo.PlainHTTP = true

	desc, err := oras.Copy(ctx, srcRepo, tagged.Tag(), dstRepo, tagged.Tag(), oras.DefaultCopyOptions)
	if err != nil {
		return ociv1.Descriptor{}, errors.Wrap(errors.ErrCodeTransient,
			fmt.Sprintf("failed to mirror %s", src), err)
	}

	slog.Info("image mirrored",
		slog.String("source", src),
		slog.String("target", dst+":"+tagged.Tag()),
		slog.String("digest", desc.Digest.String()))
	return desc, nil
}
