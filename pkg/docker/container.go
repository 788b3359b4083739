/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

func (e *dockerEngine) ContainerRunning(ctx context.Context, name string) (string, bool) {
	inspect, err := e.client.ContainerInspect(ctx, name)
	if err != nil {
		return "", false
	}
	if inspect.State == nil || !inspect.State.Running {
		return "", false
	}
	ip := containerIP(inspect)
	return ip, ip != ""
}

func (e *dockerEngine) RemoveContainer(ctx context.Context, name string) error {
	return e.client.ContainerRemove(ctx, name, containertypes.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
}

func (e *dockerEngine) RunContainer(ctx context.Context, image string, opts RunOptions) (string, error) {
	exposed, bindings, err := portMappings(opts.Ports)
	if err != nil {
		return "", err
	}

	config := &containertypes.Config{
		Image:        image,
		Env:          envList(opts.Env),
		ExposedPorts: exposed,
	}
	if len(opts.Command) > 0 {
		config.Cmd = opts.Command
	}
	hostConfig := &containertypes.HostConfig{
		Privileged:   opts.Privileged,
		PortBindings: bindings,
	}

	created, err := e.client.ContainerCreate(ctx, config, hostConfig, nil, nil, opts.Name)
	if client.IsErrNotFound(err) {
		if err = e.PullImage(ctx, image); err != nil {
			return "", err
		}
		created, err = e.client.ContainerCreate(ctx, config, hostConfig, nil, nil, opts.Name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create container %q from %s: %w", opts.Name, image, err)
	}

	if err := e.client.ContainerStart(ctx, created.ID, containertypes.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container %q: %w", opts.Name, err)
	}
	return created.ID, nil
}

func (e *dockerEngine) Exec(ctx context.Context, name string, cmd []string) (ExecResult, error) {
	exec, err := e.client.ContainerExecCreate(ctx, name, containertypes.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to create exec in %q: %w", name, err)
	}

	attach, err := e.client.ContainerExecAttach(ctx, exec.ID, containertypes.ExecAttachOptions{})
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to attach exec in %q: %w", name, err)
	}
	defer attach.Close()

	// stdout and stderr share one buffer, matching what a reader of the
	// container's terminal would see.
	var output bytes.Buffer
	if _, err := stdcopy.StdCopy(&output, &output, attach.Reader); err != nil {
		return ExecResult{}, fmt.Errorf("failed to read exec output from %q: %w", name, err)
	}

	inspect, err := e.client.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to inspect exec in %q: %w", name, err)
	}
	return ExecResult{ExitCode: inspect.ExitCode, Output: output.Bytes()}, nil
}

func (e *dockerEngine) ExecDetached(ctx context.Context, name string, cmd []string) error {
	exec, err := e.client.ContainerExecCreate(ctx, name, containertypes.ExecOptions{
		Cmd:    cmd,
		Detach: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create exec in %q: %w", name, err)
	}
	if err := e.client.ContainerExecStart(ctx, exec.ID, containertypes.ExecStartOptions{Detach: true}); err != nil {
		return fmt.Errorf("failed to start exec in %q: %w", name, err)
	}
	return nil
}

func (e *dockerEngine) FileContent(ctx context.Context, name, path string) ([]byte, error) {
	reader, _, err := e.client.CopyFromContainer(ctx, name, path)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s from %q: %w", path, name, err)
	}
	defer reader.Close()

	// The engine hands back a tar stream with the requested file as its
	// only regular entry.
	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%s not found in archive from %q", path, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive from %q: %w", name, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from %q: %w", path, name, err)
		}
		return content, nil
	}
}

func containerIP(inspect types.ContainerJSON) string {
	if inspect.NetworkSettings == nil {
		return ""
	}
	if ip := inspect.NetworkSettings.IPAddress; ip != "" {
		return ip
	}
	for _, network := range inspect.NetworkSettings.Networks {
		if network != nil && network.IPAddress != "" {
			return network.IPAddress
		}
	}
	return ""
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

func portMappings(ports map[int]int) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for containerPort, hostPort := range ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(containerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid container port %d: %w", containerPort, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: strconv.Itoa(hostPort)}}
	}
	return exposed, bindings, nil
}
