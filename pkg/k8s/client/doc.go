// Package client builds Kubernetes clients for the test harness.
//
// Two construction paths exist. Ephemeral clusters hand the harness their
// kubeconfig as raw bytes read out of the minikube container, so the
// primary constructor is FromKubeconfig:
//
//	clientset, restConfig, err := client.FromKubeconfig(content)
//	if err != nil {
//	    return fmt.Errorf("failed to build kubernetes client: %w", err)
//	}
//
// The harness CLI can also target an existing cluster through the standard
// discovery chain (KUBECONFIG, then ~/.kube/config, then the in-cluster
// service account):
//
//	clientset, restConfig, err := client.GetKubeClient()
//
// GetKubeClient caches its result behind sync.Once so repeated CLI
// operations share one connection. FromKubeconfig never caches; every
// deployed cluster gets its own client.
//
// # Testing
//
// Interface aliases kubernetes.Interface so tests can substitute
// fake.NewClientset() anywhere a client is accepted:
//
//	deployer := agent.NewDeployer(fake.NewClientset(), nil, agent.Options{})
package client
