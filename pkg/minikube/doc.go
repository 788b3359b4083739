// Package minikube manages the container running the nested Kubernetes
// test cluster.
//
// A cluster handle is obtained either by attaching to a container someone
// else started (Connect) or by building the minikube image and starting a
// fresh container (Deploy). Both return an immutable *Cluster carrying the
// kubeconfig, the resolved versions, a Kubernetes clientset for the nested
// API server, and a client for the Docker engine running inside the
// container.
//
// # Lifecycle
//
// The cluster boots asynchronously: the container starts, an in-container
// script bootstraps the control plane, and only then does the API server
// answer. Every stage is observed by polling (container running, the
// kubeconfig file appearing, the nested Docker port, the API port), each
// bounded by the operation timeout.
//
//	engine, err := docker.FromEnv()
//	if err != nil {
//		return err
//	}
//	cluster, err := minikube.Deploy(ctx, engine, minikube.DeployOptions{
//		K8sVersion: "latest",
//	})
//	if err != nil {
//		return err
//	}
//
//	err = cluster.RunAgent(ctx, minikube.AgentImage{Name: "signalfx-agent", Tag: "latest"},
//		minikube.RunAgentOptions{Agent: agent.Options{Observer: "k8s-api"}},
//		func(ctx context.Context, a *agent.Deployer, bk *backend.Backend) error {
//			// assert on bk.Datapoints()
//			return nil
//		})
//
// Deploy replaces a leftover container of the same name before booting.
// After that the container is shared across the tests of one session and
// cleaned up by the environment, not by this package.
package minikube
