/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package docker

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/docker/docker/client"
)

// Engine is the container engine surface the harness depends on. The real
// implementation talks to a Docker daemon; tests substitute a fake.
type Engine interface {
	// ContainerRunning reports whether the named container is running and
	// returns its bridge IP when it is. Missing containers, stopped
	// containers, and containers without an address all read as not
	// running.
	ContainerRunning(ctx context.Context, name string) (string, bool)

	// RemoveContainer force-removes the named container and its
	// anonymous volumes. Removing an absent container is an error.
	RemoveContainer(ctx context.Context, name string) error

	// RunContainer creates and starts a detached container from the given
	// image reference and returns the container ID. The image is pulled
	// when not present locally.
	RunContainer(ctx context.Context, image string, opts RunOptions) (string, error)

	// Exec runs a command inside the named container and blocks until it
	// exits, returning the combined output and exit code.
	Exec(ctx context.Context, name string, cmd []string) (ExecResult, error)

	// ExecDetached starts a command inside the named container without
	// waiting for it.
	ExecDetached(ctx context.Context, name string, cmd []string) error

	// FileContent returns the content of a single file inside the named
	// container.
	FileContent(ctx context.Context, name, path string) ([]byte, error)

	// HasImage reports whether an image reference (name:tag or ID)
	// resolves locally.
	HasImage(ctx context.Context, ref string) bool

	// PullImage pulls an image reference into the engine's local store.
	PullImage(ctx context.Context, ref string) error

	// BuildImage builds the Dockerfile directory dir and returns the
	// tagged reference.
	BuildImage(ctx context.Context, dir string, opts BuildOptions) (string, error)

	// Close releases the engine connection.
	Close() error
}

// RunOptions configures a container started through RunContainer.
type RunOptions struct {
	// Name is the container name. Required for containers the harness
	// addresses later.
	Name string

	// Privileged grants the container full device and capability access.
	// The minikube container needs it to run a nested Docker daemon.
	Privileged bool

	// Env is the container environment.
	Env map[string]string

	// Ports maps container TCP ports to host ports to publish.
	Ports map[int]int

	// Command overrides the image command when non-empty.
	Command []string
}

// BuildOptions configures an image build.
type BuildOptions struct {
	// Tag is the name:tag applied to the built image. Required.
	Tag string

	// BuildArgs are Dockerfile ARG values.
	BuildArgs map[string]string
}

// ExecResult is the outcome of a blocking container exec.
type ExecResult struct {
	ExitCode int
	Output   []byte
}

// Ok reports whether the command exited zero.
func (r ExecResult) Ok() bool {
	return r.ExitCode == 0
}

type dockerEngine struct {
	client *client.Client
}

// FromEnv connects to the host Docker engine using the standard DOCKER_*
// environment variables.
func FromEnv() (Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &dockerEngine{client: cli}, nil
}

// Connect connects to a Docker engine listening on tcp://host:port. The
// harness uses it to reach the engine nested inside the minikube
// container.
func Connect(host string, port int) (Engine, error) {
	addr := "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
	cli, err := client.NewClientWithOpts(client.WithHost(addr), client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client for %s: %w", addr, err)
	}
	return &dockerEngine{client: cli}, nil
}

func (e *dockerEngine) Close() error {
	return e.client.Close()
}

// FreePort asks the kernel for an unused TCP port on the host.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// HostIP returns the host address containers can reach the test process
// on. The probe address is never dialed; it only selects the outbound
// interface. Falls back to loopback when the host has no route.
func HostIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
