/*
Package agent deploys the SignalFx agent daemonset into a test cluster
and manages its supporting resources.

A deployment lays down, in order: the access-token secret, the service
account, the cluster role and its binding, the rendered config map, and
finally the daemonset. The secret, service account, and RBAC objects are
created only when absent so repeated deployments in the same cluster
reuse them; the config map and daemonset are deleted and recreated every
time so each test starts from a clean agent.

The config map's embedded agent.yaml is rewritten for the deployment at
hand: the observers section is rebuilt from the requested observer type,
the monitors list is replaced wholesale, the cluster name becomes the
kubernetes_cluster global dimension, and when a backend is supplied its
ingest/API endpoints are pinned.

# Usage Example

	clientset, restConfig, err := client.FromKubeconfig(kubeconfig)
	if err != nil {
		return err
	}

	deployer := agent.NewDeployer(clientset, restConfig, agent.Options{
		Observer:    "k8s-api",
		Monitors:    []map[string]any{{"type": "kubernetes-cluster"}},
		ClusterName: cluster.Name,
		Namespace:   "default",
	})
	if err := deployer.Deploy(ctx); err != nil {
		return err
	}
	defer deployer.Delete(context.Background())

	status, err := deployer.Status(ctx)

Delete removes only the daemonset and config map; the secret, service
account, and RBAC objects persist for the next deployment.

# Testing

The package works against k8s.io/client-go/kubernetes/fake clientsets.
Pod exec goes through a swappable function so Status is testable without
an SPDY transport.
*/
package agent
