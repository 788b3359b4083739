/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/signalfx/agent-test-harness/pkg/backend"
	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/k8s/agent"
	"github.com/signalfx/agent-test-harness/pkg/minikube"
	"github.com/signalfx/agent-test-harness/pkg/serializer"
	"github.com/signalfx/agent-test-harness/pkg/wait"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Run the agent on a cluster and verify it reports",
		Description: `Boot a cluster (or attach to one with --connect), apply any extra
manifests, start a fake ingest backend on the host, deploy the agent
pointed at it, and wait for datapoints to arrive. Everything the run
created is removed again afterwards, pass or fail.

The agent image comes from the stock daemonset manifest unless --image
and --tag override it together.

# Examples

One-shot run against the newest stable Kubernetes:

  k8stest run --k8s-version latest

Reuse a cluster and exercise extra workloads:

  k8stest run --connect minikube --yamls nginx.yaml --yamls redis.yaml

Test a locally built agent image:

  k8stest run --k8s-version 1.15.0 --image signalfx-agent --tag dev`,
		Flags: []cli.Flag{
			k8sVersionFlag,
			&cli.StringFlag{
				Name:  "connect",
				Usage: "Attach to this running cluster container instead of booting a fresh one",
			},
			clusterTimeoutFlag,
			&cli.StringFlag{
				Name:    "image",
				Usage:   "Agent image name (defaults to the manifest image)",
				Sources: cli.EnvVars("AGENT_IMAGE_NAME"),
			},
			&cli.StringFlag{
				Name:    "tag",
				Usage:   "Agent image tag",
				Sources: cli.EnvVars("AGENT_IMAGE_TAG"),
			},
			&cli.StringFlag{
				Name:  "observer",
				Usage: "Observer type rendered into the agent config",
				Value: "k8s-api",
			},
			&cli.StringFlag{
				Name:  "cluster-name",
				Usage: "kubernetes_cluster dimension (defaults to the kubeconfig context name)",
			},
			&cli.StringFlag{
				Name:  "namespace",
				Usage: "Namespace for the agent resources",
				Value: agent.DefaultNamespace,
			},
			&cli.StringFlag{
				Name:  "access-token",
				Usage: "Access token stored in the agent secret",
			},
			&cli.StringSliceFlag{
				Name:  "yamls",
				Usage: "Extra manifest to apply before the agent and remove after (can be repeated)",
			},
			&cli.StringFlag{
				Name:  "backend-host",
				Usage: "Address the fake backend listens on (defaults to the host outbound IP)",
			},
			&cli.DurationFlag{
				Name:  "verify-timeout",
				Usage: "How long to wait for the agent to report datapoints",
				Value: 2 * time.Minute,
			},
			outputFlag,
			formatFlag,
			logLevelFlag,
			metricsAddrFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stop, err := initRuntime(cmd)
			if err != nil {
				return err
			}
			defer stop()

			opts, err := parseRunOptions(cmd)
			if err != nil {
				return err
			}

			engine, err := docker.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to connect to docker: %w", err)
			}
			defer engine.Close()

			cluster, err := openCluster(ctx, engine, opts)
			if err != nil {
				return err
			}

			return cluster.RunAgent(ctx, opts.image, minikube.RunAgentOptions{
				Yamls:       opts.yamls,
				Agent:       opts.agent,
				BackendHost: opts.backendHost,
			}, func(ctx context.Context, deployer *agent.Deployer, bk *backend.Backend) error {
				return verifyAgent(ctx, deployer, bk, opts)
			})
		},
	}
}

// runOptions holds the validated run flags.
type runOptions struct {
	connect       string
	k8sVersion    string
	timeout       time.Duration
	image         minikube.AgentImage
	agent         agent.Options
	yamls         []string
	backendHost   string
	verifyTimeout time.Duration
	output        string
	format        serializer.Format
}

// parseRunOptions extracts and validates the run flags.
func parseRunOptions(cmd *cli.Command) (*runOptions, error) {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}

	opts := &runOptions{
		connect:    cmd.String("connect"),
		k8sVersion: cmd.String("k8s-version"),
		timeout:    cmd.Duration("timeout"),
		image: minikube.AgentImage{
			Name: cmd.String("image"),
			Tag:  cmd.String("tag"),
		},
		agent: agent.Options{
			Observer:    cmd.String("observer"),
			ClusterName: cmd.String("cluster-name"),
			Namespace:   cmd.String("namespace"),
			AccessToken: cmd.String("access-token"),
		},
		yamls:         cmd.StringSlice("yamls"),
		backendHost:   cmd.String("backend-host"),
		verifyTimeout: cmd.Duration("verify-timeout"),
		output:        cmd.String("output"),
		format:        outFormat,
	}

	if opts.connect == "" && opts.k8sVersion == "" {
		return nil, fmt.Errorf("either --k8s-version or --connect is required")
	}
	if (opts.image.Name == "") != (opts.image.Tag == "") {
		return nil, fmt.Errorf("--image and --tag must be set together")
	}
	return opts, nil
}

// openCluster attaches to an existing cluster container or boots a fresh
// one.
func openCluster(ctx context.Context, engine docker.Engine, opts *runOptions) (*minikube.Cluster, error) {
	if opts.connect != "" {
		return minikube.Connect(ctx, engine, minikube.ConnectOptions{
			Name:       opts.connect,
			Timeout:    opts.timeout,
			K8sVersion: opts.k8sVersion,
		})
	}
	return minikube.Deploy(ctx, engine, minikube.DeployOptions{
		K8sVersion: opts.k8sVersion,
		Timeout:    opts.timeout,
	})
}

// runReport is the reportable outcome of one agent run.
type runReport struct {
	Datapoints int    `json:"datapoints" yaml:"datapoints"`
	Events     int    `json:"events" yaml:"events"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
}

// verifyAgent waits for the agent to deliver datapoints to the backend
// and emits the run report.
func verifyAgent(ctx context.Context, deployer *agent.Deployer, bk *backend.Backend, opts *runOptions) error {
	reported := wait.For(ctx, func() bool {
		return len(bk.Datapoints()) > 0
	}, opts.verifyTimeout, defaults.ClusterPollInterval)
	if !reported {
		return errors.Newf(errors.ErrCodeTimeout, "agent reported no datapoints within %s", opts.verifyTimeout)
	}

	report := runReport{
		Datapoints: len(bk.Datapoints()),
		Events:     len(bk.Events()),
	}
	if status, err := deployer.Status(ctx); err == nil {
		report.Status = status
	}
	slog.Info("agent verified",
		"datapoints", report.Datapoints,
		"events", report.Events)

	s := serializer.NewFileWriterOrStdout(opts.format, opts.output)
	defer closeSerializer(s)
	return s.Serialize(ctx, report)
}
