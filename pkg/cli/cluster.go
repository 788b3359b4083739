/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/docker"
	"github.com/signalfx/agent-test-harness/pkg/minikube"
	"github.com/signalfx/agent-test-harness/pkg/serializer"
)

// Flags shared by the cluster subcommands and run.
var (
	clusterNameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Cluster container name",
		Value: minikube.DefaultContainerName,
	}

	k8sVersionFlag = &cli.StringFlag{
		Name:    "k8s-version",
		Usage:   `Kubernetes version to run ("latest" resolves the newest stable release)`,
		Sources: cli.EnvVars("K8S_VERSION"),
	}

	clusterTimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Budget for the cluster to become ready",
		Value: defaults.ClusterTimeout,
	}

	kubeconfigOutFlag = &cli.StringFlag{
		Name:  "kubeconfig-out",
		Usage: "Write the cluster kubeconfig to this file",
	}
)

func clusterCmd() *cli.Command {
	return &cli.Command{
		Name:                  "cluster",
		EnableShellCompletion: true,
		Usage:                 "Manage cluster containers",
		Commands: []*cli.Command{
			clusterUpCmd(),
			clusterConnectCmd(),
			clusterLogsCmd(),
			clusterRmCmd(),
		},
	}
}

func clusterUpCmd() *cli.Command {
	return &cli.Command{
		Name:                  "up",
		EnableShellCompletion: true,
		Usage:                 "Boot a fresh cluster container",
		Description: `Build the minikube image for the requested Kubernetes version, start it as
a privileged container named "minikube", and wait for the nested cluster
to come up. A running container with that name is removed first.

# Examples

Newest stable Kubernetes:

  k8stest cluster up --k8s-version latest

A specific version, with a longer boot budget:

  k8stest cluster up --k8s-version 1.15.0 --timeout 10m`,
		Flags: []cli.Flag{
			k8sVersionFlag,
			clusterTimeoutFlag,
			kubeconfigOutFlag,
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

			if cmd.String("k8s-version") == "" {
				return fmt.Errorf("--k8s-version is required")
			}

			engine, err := docker.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to connect to docker: %w", err)
			}
			defer engine.Close()

			cluster, err := minikube.Deploy(ctx, engine, minikube.DeployOptions{
				K8sVersion: cmd.String("k8s-version"),
				Timeout:    cmd.Duration("timeout"),
			})
			if err != nil {
				return err
			}
			return reportCluster(ctx, cmd, cluster)
		},
	}
}

func clusterConnectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "connect",
		EnableShellCompletion: true,
		Usage:                 "Attach to a running cluster container",
		Description: `Wait for the named container to be running and its nested cluster to
answer, then print the cluster summary. With --k8s-version the attach
first waits for the matching minikube image to exist locally, which
covers racing a deploy started elsewhere.

# Examples

  k8stest cluster connect --name minikube --kubeconfig-out ./kubeconfig`,
		Flags: []cli.Flag{
			clusterNameFlag,
			k8sVersionFlag,
			clusterTimeoutFlag,
			kubeconfigOutFlag,
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

			engine, err := docker.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to connect to docker: %w", err)
			}
			defer engine.Close()

			cluster, err := minikube.Connect(ctx, engine, minikube.ConnectOptions{
				Name:       cmd.String("name"),
				Timeout:    cmd.Duration("timeout"),
				K8sVersion: cmd.String("k8s-version"),
			})
			if err != nil {
				return err
			}
			return reportCluster(ctx, cmd, cluster)
		},
	}
}

func clusterLogsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "logs",
		EnableShellCompletion: true,
		Usage:                 "Print the cluster bootstrap log",
		Flags: []cli.Flag{
			clusterNameFlag,
			logLevelFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stop, err := initRuntime(cmd)
			if err != nil {
				return err
			}
			defer stop()

			engine, err := docker.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to connect to docker: %w", err)
			}
			defer engine.Close()

			fmt.Println(minikube.ContainerLogs(ctx, engine, cmd.String("name")))
			return nil
		},
	}
}

func clusterRmCmd() *cli.Command {
	return &cli.Command{
		Name:                  "rm",
		EnableShellCompletion: true,
		Usage:                 "Remove a cluster container",
		Flags: []cli.Flag{
			clusterNameFlag,
			logLevelFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stop, err := initRuntime(cmd)
			if err != nil {
				return err
			}
			defer stop()

			engine, err := docker.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to connect to docker: %w", err)
			}
			defer engine.Close()

			containerName := cmd.String("name")
			if err := engine.RemoveContainer(ctx, containerName); err != nil {
				return fmt.Errorf("failed to remove %s: %w", containerName, err)
			}
			fmt.Printf("Removed %s\n", containerName)
			return nil
		},
	}
}

// clusterSummary is the reportable view of a booted cluster.
type clusterSummary struct {
	Name        string `json:"name" yaml:"name"`
	IP          string `json:"ip" yaml:"ip"`
	ClusterName string `json:"clusterName" yaml:"clusterName"`
	Kubernetes  string `json:"kubernetes" yaml:"kubernetes"`
	Minikube    string `json:"minikube" yaml:"minikube"`
	Bootstrap   string `json:"bootstrap" yaml:"bootstrap"`
}

// reportCluster emits the cluster summary in the requested format and
// optionally writes the kubeconfig out for kubectl use.
func reportCluster(ctx context.Context, cmd *cli.Command, cluster *minikube.Cluster) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	if path := cmd.String("kubeconfig-out"); path != "" {
		if err := os.WriteFile(path, cluster.Kubeconfig, 0o600); err != nil {
			return fmt.Errorf("failed to write kubeconfig: %w", err)
		}
		slog.Info("kubeconfig written", "path", path)
	}

	s := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer closeSerializer(s)
	return s.Serialize(ctx, clusterSummary{
		Name:        cluster.Name,
		IP:          cluster.IP,
		ClusterName: cluster.ClusterName,
		Kubernetes:  cluster.K8sVersion.String(),
		Minikube:    cluster.MinikubeVersion.String(),
		Bootstrap:   string(cluster.Bootstrapper),
	})
}
