/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

const (
	name           = "k8stest"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd assembles the command tree.
func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               version,
		EnableShellCompletion: true,
		Usage:                 "Ephemeral Kubernetes clusters for agent testing",
		Description: fmt.Sprintf(`k8stest boots disposable minikube clusters inside Docker containers and
runs the SignalFx agent against a fake ingest backend.

Version: %s
Commit:  %s
Built:   %s

# Typical Session

One-shot run, cluster included:

  k8stest run --k8s-version latest

Keep a cluster around between runs:

  k8stest cluster up --k8s-version 1.15.0
  k8stest run --connect minikube
  k8stest cluster rm`, version, commit, date),
		Commands: []*cli.Command{
			clusterCmd(),
			runCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main and exits the process
// on error.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
