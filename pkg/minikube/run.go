/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"log/slog"
	"time"

	"github.com/signalfx/agent-test-harness/pkg/backend"
	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/k8s/agent"
	"github.com/signalfx/agent-test-harness/pkg/k8s/reconcile"
)

// AgentImage names the agent image to deploy.
type AgentImage struct {
	Name string
	Tag  string
}

// RunAgentOptions configures one RunAgent scope.
type RunAgentOptions struct {
	// Yamls are manifest files applied before the agent and removed
	// after it.
	Yamls []string

	// YamlsTimeout bounds waiting for the applied manifests to become
	// ready. defaults.RolloutTimeout when zero.
	YamlsTimeout time.Duration

	// Agent carries agent deploy options. Namespace, ClusterName, image
	// fields, and Backend are filled in by RunAgent.
	Agent agent.Options

	// BackendHost is the address the fake backend listens on and the
	// agent dials back to. The host's outbound interface address when
	// empty; loopback never works from inside the cluster.
	BackendHost string
}

// RunAgent applies the scoped manifests, starts a fake backend, deploys
// the agent wired to it, and hands both to fn. Everything is torn down
// when fn returns, in reverse order, even on partial failures. The agent
// status, logs, and backend totals are dumped before teardown so failed
// runs leave a trail.
func (c *Cluster) RunAgent(ctx context.Context, image AgentImage, opts RunAgentOptions, fn func(ctx context.Context, deployer *agent.Deployer, bk *backend.Backend) error) (err error) {
	if opts.YamlsTimeout == 0 {
		opts.YamlsTimeout = defaults.RolloutTimeout
	}
	namespace := opts.Agent.Namespace
	if namespace == "" {
		namespace = agent.DefaultNamespace
	}

	release, applyErr := reconcile.Apply(ctx, c.clientset, reconcile.Options{
		Files:     opts.Yamls,
		Namespace: namespace,
		Timeout:   opts.YamlsTimeout,
		Describer: c,
	})
	defer func() {
		if delErr := release.Delete(context.Background()); delErr != nil {
			if err == nil {
				err = delErr
			} else {
				slog.Warn("failed to delete scoped manifests", slog.Any("error", delErr))
			}
		}
	}()
	if applyErr != nil {
		return applyErr
	}

	host := opts.BackendHost
	if host == "" {
		host = docker.HostIP()
	}
	bk, err := backend.Start(ctx, backend.Options{Host: host})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := bk.Close(); closeErr != nil {
			if err == nil {
				err = closeErr
			} else {
				slog.Warn("failed to close fake backend", slog.Any("error", closeErr))
			}
		}
	}()

	agentOpts := opts.Agent
	agentOpts.Namespace = namespace
	if agentOpts.ClusterName == "" {
		agentOpts.ClusterName = c.ClusterName
	}
	agentOpts.ImageName = image.Name
	agentOpts.ImageTag = image.Tag
	agentOpts.Backend = &agent.Endpoints{
		IngestHost: bk.IngestHost,
		IngestPort: bk.IngestPort,
		APIHost:    bk.APIHost,
		APIPort:    bk.APIPort,
	}
	deployer := agent.NewDeployer(c.clientset, c.restConfig, agentOpts)

	// Registered before Deploy so a half-created agent is still removed.
	defer func() {
		dumpAgentDiagnostics(context.Background(), deployer, bk)
		if delErr := deployer.Delete(context.Background()); delErr != nil {
			if err == nil {
				err = delErr
			} else {
				slog.Warn("failed to delete agent", slog.Any("error", delErr))
			}
		}
	}()
	if deployErr := deployer.Deploy(ctx); deployErr != nil {
		return deployErr
	}

	return fn(ctx, deployer, bk)
}

func dumpAgentDiagnostics(ctx context.Context, deployer *agent.Deployer, bk *backend.Backend) {
	status, err := deployer.Status(ctx)
	switch {
	case err != nil:
		slog.Warn("failed to collect agent status", slog.Any("error", err))
	case status != "":
		slog.Info("agent status", slog.String("status", status))
	}

	logs, err := deployer.Logs(ctx)
	switch {
	case err != nil:
		slog.Warn("failed to collect agent logs", slog.Any("error", err))
	case logs != "":
		slog.Info("agent logs", slog.String("logs", logs))
	}

	dps := bk.Datapoints()
	events := bk.Events()
	slog.Info("fake backend totals",
		slog.String("run_id", bk.RunID),
		slog.Int("datapoints", len(dps)),
		slog.Int("events", len(events)))
	for _, dp := range dps {
		slog.Debug("datapoint",
			slog.String("metric", dp.Metric),
			slog.String("type", dp.MetricType),
			slog.Float64("value", dp.Value))
	}
	for _, ev := range events {
		slog.Debug("event",
			slog.String("event_type", ev.EventType),
			slog.String("category", ev.Category))
	}
}
