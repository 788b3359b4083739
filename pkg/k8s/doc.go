// Package k8s groups the Kubernetes layers of the test harness.
//
// # Sub-packages
//
// client builds clientsets. Ephemeral clusters hand over their kubeconfig
// as raw bytes, so construction from content is the primary path:
//
//	clientset, restConfig, err := client.FromKubeconfig(content)
//
// resource is the typed CRUD layer. Manifest documents decode into
// resource.Object values with a closed kind set, and resource.Client
// dispatches each operation onto the matching typed API.
//
// reconcile applies manifest files on top of the resource layer, waits
// for deployment rollouts, and returns a Release that tears everything
// down in application order.
//
// agent deploys the SignalFx agent daemonset with its RBAC and rendered
// configuration, and reads status and logs back out of the running pods.
//
// The layering is strict: agent and reconcile depend on resource, and
// everything accepts a kubernetes.Interface so tests run against fake
// clientsets.
package k8s
