// Package cli implements the k8stest command-line interface.
//
// # Overview
//
// k8stest boots disposable minikube clusters inside Docker containers and
// runs the SignalFx agent against them, pointed at an in-process fake
// ingest backend. It exists for integration testing: every cluster is
// ephemeral, every run tears its resources down, and nothing it does
// touches a real SignalFx account.
//
// # Commands
//
// cluster up - Boot a fresh cluster container:
//
//	k8stest cluster up --k8s-version latest
//
// Builds the minikube image for the requested Kubernetes version, starts
// it as a privileged container, and waits until the nested Docker engine
// and API server answer.
//
// cluster connect - Attach to a running cluster container:
//
//	k8stest cluster connect --name minikube [--kubeconfig-out FILE]
//
// cluster logs - Print the cluster bootstrap log:
//
//	k8stest cluster logs --name minikube
//
// cluster rm - Remove a cluster container:
//
//	k8stest cluster rm --name minikube
//
// run - Deploy the agent and verify it reports:
//
//	k8stest run --k8s-version 1.15.0 [--yamls services.yaml]
//
// Applies any extra manifests, starts the fake backend, deploys the agent
// wired to it, waits for datapoints to arrive, and removes everything
// again. With --connect the run reuses an existing cluster container
// instead of booting a new one.
//
// # Environment Variables
//
//	LOG_LEVEL              Logging verbosity (debug, info, warn, error)
//	K8S_VERSION            Default for --k8s-version
//	K8S_RELEASE_URL        Alternate Kubernetes release index
//	MINIKUBE_VERSION       Pin the minikube version instead of deriving it
//	MINIKUBE_IMAGE_TIMEOUT Seconds to wait for the minikube image
//	TEST_SERVICES_DIR      Dockerfile root for image builds
//	AGENT_YAMLS_DIR        Directory holding the stock agent manifests
//
// # Exit Codes
//
//	0  Success
//	1  Any error (invalid arguments, boot failure, agent never reported)
//
// The CLI uses the urfave/cli/v3 framework and stays a thin layer over
// the library packages: pkg/minikube for cluster lifecycle, pkg/k8s/agent
// for the agent deployment, pkg/backend for the fake ingest backend.
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/signalfx/agent-test-harness/pkg/cli.version=1.0.0'"
package cli
