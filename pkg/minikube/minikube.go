/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/k8s/client"
	"github.com/signalfx/agent-test-harness/pkg/releases"
	"github.com/signalfx/agent-test-harness/pkg/version"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

const (
	// DefaultContainerName is the container name Deploy uses and removes
	// stale instances of.
	DefaultContainerName = "minikube"

	kubeconfigPath = "/kubeconfig"
	startScript    = "start-minikube.sh"
	startLogPath   = "/var/log/start-minikube.log"
)

// Bootstrapper identifies the tool that initialized the nested control
// plane.
type Bootstrapper string

const (
	BootstrapperLocalkube Bootstrapper = "localkube"
	BootstrapperKubeadm   Bootstrapper = "kubeadm"
	BootstrapperUnknown   Bootstrapper = "unknown"
)

// Cluster is a handle to one running cluster container. All exported
// fields are immutable after Connect or Deploy returns.
type Cluster struct {
	// Name is the cluster container's name. Every later container
	// operation addresses it by this name.
	Name string

	// IP is the container's bridge address; the nested Docker engine,
	// the API server, and the registry are reached through it.
	IP string

	// ClusterName is the cluster named by the kubeconfig's current
	// context.
	ClusterName string

	// Kubeconfig is the raw kubeconfig read from the container. Read
	// exactly once per container lifetime.
	Kubeconfig []byte

	// K8sVersion and MinikubeVersion are the resolved versions. Both are
	// zero when Connect was called without a version request.
	K8sVersion      version.Version
	MinikubeVersion version.Version

	// Bootstrapper is the probed control-plane bootstrap mechanism.
	Bootstrapper Bootstrapper

	// RegistryPort is the port reserved for the in-cluster registry.
	RegistryPort int

	host   docker.Engine
	nested docker.Engine

	clientset  kubernetes.Interface
	restConfig *rest.Config

	retryAttempts int
	retryDelay    time.Duration
	waitTimeout   time.Duration
	waitInterval  time.Duration
}

// Clientset returns the Kubernetes client for the nested cluster.
func (c *Cluster) Clientset() kubernetes.Interface {
	return c.clientset
}

// RestConfig returns the rest config backing the clientset.
func (c *Cluster) RestConfig() *rest.Config {
	return c.restConfig
}

// NestedEngine returns the client for the Docker engine running inside
// the cluster container.
func (c *Cluster) NestedEngine() docker.Engine {
	return c.nested
}

// ConnectOptions configures attaching to an already-started cluster
// container.
type ConnectOptions struct {
	// Name is the container to attach to. Required.
	Name string

	// Timeout bounds the container-running and cluster-ready waits.
	// defaults.ClusterTimeout when zero.
	Timeout time.Duration

	// K8sVersion optionally declares the cluster's Kubernetes version
	// ("latest" resolves through the release index). When set, Connect
	// first waits for the matching minikube image to exist locally.
	K8sVersion string
}

// DeployOptions configures starting a fresh cluster container.
type DeployOptions struct {
	// K8sVersion is the Kubernetes version to bootstrap. Required;
	// "latest" resolves through the release index.
	K8sVersion string

	// Timeout bounds the cluster-ready waits and is handed to the
	// in-container bootstrap as its own budget. defaults.ClusterTimeout
	// when zero.
	Timeout time.Duration

	// Run overrides the computed container run options. Name must be set
	// when overriding; the bootstrap-era entrypoint is still applied.
	Run *docker.RunOptions
}

// Connect attaches to the named cluster container, loads its kubeconfig,
// and waits until the nested Docker engine and the Kubernetes API answer.
func Connect(ctx context.Context, engine docker.Engine, opts ConnectOptions) (*Cluster, error) {
	return newConnector(engine).connect(ctx, opts)
}

// Deploy builds the minikube image, starts a fresh cluster container, and
// waits for the nested cluster to come up. Any running container named
// DefaultContainerName is removed first.
func Deploy(ctx context.Context, engine docker.Engine, opts DeployOptions) (*Cluster, error) {
	return newConnector(engine).deploy(ctx, opts)
}

// connector carries the knobs for one Connect or Deploy. Tests scale the
// timings down and substitute the nested-engine dialer.
type connector struct {
	host  docker.Engine
	index *releases.Client

	dockerPort        int
	apiPort           int
	registryPort      int
	registryProbeHost string

	imageTimeout  time.Duration
	pollInterval  time.Duration
	waitTimeout   time.Duration
	waitInterval  time.Duration
	settleDelay   time.Duration
	retryAttempts int
	retryDelay    time.Duration

	connectNested func(host string, port int) (docker.Engine, error)
}

func newConnector(engine docker.Engine) *connector {
	return &connector{
		host:              engine,
		index:             releases.NewClient(releases.Config{}),
		dockerPort:        DockerPort,
		apiPort:           APIPort,
		registryPort:      RegistryPort,
		registryProbeHost: "127.0.0.1",
		imageTimeout:      imageWaitTimeout(),
		pollInterval:      defaults.ClusterPollInterval,
		waitTimeout:       defaults.WaitTimeout,
		waitInterval:      defaults.WaitInterval,
		settleDelay:       defaults.KubeconfigSettleDelay,
		retryAttempts:     defaults.RetryAttempts,
		retryDelay:        defaults.RetryDelay,
		connectNested:     docker.Connect,
	}
}

func (c *connector) connect(ctx context.Context, opts ConnectOptions) (cluster *Cluster, err error) {
	start := time.Now()
	defer func() {
		bootDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			connectTotal.WithLabelValues(metricError).Inc()
		} else {
			connectTotal.WithLabelValues(metricSuccess).Inc()
		}
	}()

	if opts.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "container name is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaults.ClusterTimeout
	}

	var k8sVersion, mkVersion version.Version
	if opts.K8sVersion != "" {
		if k8sVersion, err = resolveK8sVersion(ctx, c.index, opts.K8sVersion); err != nil {
			return nil, err
		}
		if mkVersion, err = minikubeVersion(k8sVersion); err != nil {
			return nil, err
		}
		image := minikubeImage(mkVersion)
		slog.Info("waiting for minikube image", slog.String("image", image))
		present := func() bool { return c.host.HasImage(ctx, image) }
		if !wait.For(ctx, present, c.imageTimeout, c.pollInterval) {
			return nil, errors.Newf(errors.ErrCodeTimeout,
				"timed out waiting for %s image", image)
		}
	}

	slog.Info("connecting to cluster container", slog.String("container", opts.Name))
	ip, err := c.waitContainerRunning(ctx, opts.Name, opts.Timeout)
	if err != nil {
		return nil, err
	}

	cluster = c.newCluster(opts.Name, ip, k8sVersion, mkVersion, c.registryPort)
	if err = c.finishBoot(ctx, cluster, opts.Timeout); err != nil {
		return nil, err
	}
	return cluster, nil
}

func (c *connector) deploy(ctx context.Context, opts DeployOptions) (cluster *Cluster, err error) {
	start := time.Now()
	defer func() {
		bootDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			deployTotal.WithLabelValues(metricError).Inc()
		} else {
			deployTotal.WithLabelValues(metricSuccess).Inc()
		}
	}()

	if opts.K8sVersion == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "kubernetes version is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaults.ClusterTimeout
	}

	k8sVersion, err := resolveK8sVersion(ctx, c.index, opts.K8sVersion)
	if err != nil {
		return nil, err
	}
	mkVersion, err := minikubeVersion(k8sVersion)
	if err != nil {
		return nil, err
	}

	registryPort := c.registryPort
	if wait.TCPPortOpen(c.registryProbeHost, registryPort)() {
		if registryPort, err = docker.FreePort(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find a free registry port", err)
		}
		slog.Info("registry port occupied, picked a free one", slog.Int("port", registryPort))
	}

	if _, running := c.host.ContainerRunning(ctx, DefaultContainerName); running {
		slog.Info("removing existing cluster container", slog.String("container", DefaultContainerName))
		if err = c.host.RemoveContainer(ctx, DefaultContainerName); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal,
				fmt.Sprintf("failed to remove existing %s container", DefaultContainerName), err)
		}
	}

	runOpts := docker.RunOptions{
		Name:       DefaultContainerName,
		Privileged: true,
		Env: map[string]string{
			"K8S_VERSION": k8sVersion.Tag(),
			"TIMEOUT":     strconv.Itoa(int(opts.Timeout.Seconds())),
		},
		Ports: map[int]int{registryPort: registryPort},
	}
	if opts.Run != nil {
		if opts.Run.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidRequest, "run options must name the container")
		}
		runOpts = *opts.Run
	}
	// localkube images carry no init system; newer builds boot systemd.
	if mkVersion.Newer(localkubeBuild) {
		runOpts.Command = []string{"/lib/systemd/systemd"}
	} else {
		runOpts.Command = []string{"sleep", "inf"}
	}

	image := minikubeImage(mkVersion)
	if _, err = c.buildImage(ctx, "minikube", docker.BuildOptions{
		Tag:       image,
		BuildArgs: map[string]string{"MINIKUBE_VERSION": mkVersion.Tag()},
	}); err != nil {
		return nil, err
	}

	slog.Info("deploying cluster",
		slog.String("version", k8sVersion.Tag()),
		slog.String("image", image))
	if _, err = c.host.RunContainer(ctx, image, runOpts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to run cluster container", err)
	}
	if err = c.host.ExecDetached(ctx, runOpts.Name, []string{startScript}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to start cluster bootstrap", err)
	}

	ip, err := c.waitContainerRunning(ctx, runOpts.Name, opts.Timeout)
	if err != nil {
		return nil, err
	}

	cluster = c.newCluster(runOpts.Name, ip, k8sVersion, mkVersion, registryPort)
	if err = c.finishBoot(ctx, cluster, opts.Timeout); err != nil {
		return nil, err
	}
	return cluster, nil
}

func (c *connector) newCluster(name, ip string, k8s, mk version.Version, registryPort int) *Cluster {
	return &Cluster{
		Name:            name,
		IP:              ip,
		K8sVersion:      k8s,
		MinikubeVersion: mk,
		RegistryPort:    registryPort,
		host:            c.host,
		retryAttempts:   c.retryAttempts,
		retryDelay:      c.retryDelay,
		waitTimeout:     c.waitTimeout,
		waitInterval:    c.waitInterval,
	}
}

// waitContainerRunning polls until the named container runs with an
// address and returns that address.
func (c *connector) waitContainerRunning(ctx context.Context, name string, timeout time.Duration) (string, error) {
	var ip string
	running := func() bool {
		addr, ok := c.host.ContainerRunning(ctx, name)
		if ok {
			ip = addr
		}
		return ok
	}
	if !wait.For(ctx, running, timeout, c.pollInterval) {
		return "", errors.Newf(errors.ErrCodeTimeout, "timed out waiting for container %s", name)
	}
	return ip, nil
}

// finishBoot runs the stages shared by Connect and Deploy: kubeconfig,
// nested engine, API server, bootstrapper probe.
func (c *connector) finishBoot(ctx context.Context, cluster *Cluster, timeout time.Duration) error {
	if err := c.loadKubeconfig(ctx, cluster, timeout); err != nil {
		return err
	}

	if !wait.For(ctx, wait.TCPPortOpen(cluster.IP, c.dockerPort), c.waitTimeout, c.waitInterval) {
		return errors.Newf(errors.ErrCodeTimeout,
			"timed out waiting for the docker engine in %s", cluster.Name)
	}
	nested, err := c.connectNested(cluster.IP, c.dockerPort)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to connect to the nested docker engine", err)
	}
	cluster.nested = nested

	if !wait.For(ctx, wait.TCPPortOpen(cluster.IP, c.apiPort), c.waitTimeout, c.waitInterval) {
		return errors.Newf(errors.ErrCodeTimeout,
			"timed out waiting for the kubernetes api in %s", cluster.Name)
	}

	cluster.Bootstrapper = c.probeBootstrapper(ctx, cluster.Name)
	slog.Info("cluster ready",
		slog.String("container", cluster.Name),
		slog.String("cluster", cluster.ClusterName),
		slog.String("bootstrapper", string(cluster.Bootstrapper)))
	return nil
}

// loadKubeconfig waits for the bootstrap to write the kubeconfig, reads
// it, and builds the Kubernetes client from it. A timeout carries the
// container's bootstrap log for post-mortem reading.
func (c *connector) loadKubeconfig(ctx context.Context, cluster *Cluster, timeout time.Duration) error {
	exists := func() bool {
		res, err := c.host.Exec(ctx, cluster.Name, []string{"test", "-f", kubeconfigPath})
		return err == nil && res.Ok()
	}
	if !wait.For(ctx, exists, timeout, c.pollInterval) {
		return errors.Newf(errors.ErrCodeTimeout,
			"timed out waiting for the cluster to be ready\n\n%s",
			containerLogs(ctx, c.host, cluster.Name))
	}

	// The file appears before the credentials in it are complete.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.settleDelay):
	}

	content, err := c.host.FileContent(ctx, cluster.Name, kubeconfigPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to read kubeconfig", err)
	}
	clusterName, err := client.ClusterName(content)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to resolve cluster name", err)
	}
	clientset, restConfig, err := client.FromKubeconfig(content)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to build kubernetes client", err)
	}

	cluster.Kubeconfig = content
	cluster.ClusterName = clusterName
	cluster.clientset = clientset
	cluster.restConfig = restConfig
	return nil
}

// probeBootstrapper checks for known bootstrap binaries inside the
// container.
func (c *connector) probeBootstrapper(ctx context.Context, name string) Bootstrapper {
	if res, err := c.host.Exec(ctx, name, []string{"which", "localkube"}); err == nil && res.Ok() {
		return BootstrapperLocalkube
	}
	if res, err := c.host.Exec(ctx, name, []string{"which", "kubeadm"}); err == nil && res.Ok() {
		return BootstrapperKubeadm
	}
	return BootstrapperUnknown
}
