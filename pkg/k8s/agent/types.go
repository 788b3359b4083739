/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/k8s/client"
	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

const (
	// SecretName is the secret holding the agent access token.
	SecretName = "signalfx-agent"
	// SecretKey is the access-token key within the secret.
	SecretKey = "access-token"
	// DefaultAccessToken is stored when no token is supplied.
	DefaultAccessToken = "testing123"

	// DefaultClusterName tags datapoints when no cluster name is given.
	DefaultClusterName = "minikube"
	// DefaultNamespace receives the agent when no namespace is given.
	DefaultNamespace = "default"
)

// DefaultStatusCommand is run inside each agent pod by Status.
var DefaultStatusCommand = []string{"/bin/sh", "-c", "agent-status"}

// Endpoints points the agent at an ingest/API backend.
type Endpoints struct {
	IngestHost string
	IngestPort int
	APIHost    string
	APIPort    int
}

// Options holds the configuration for deploying the agent.
type Options struct {
	// Observer is the observer type rendered into the agent config.
	// Empty means the config carries no observers section.
	Observer string

	// Monitors replace the stock monitors list wholesale.
	Monitors []map[string]any

	// ClusterName becomes the kubernetes_cluster global dimension.
	ClusterName string

	// Namespace receives every namespaced agent resource.
	Namespace string

	// Backend, when set, pins ingestUrl/apiUrl in the agent config.
	Backend *Endpoints

	// ImageName and ImageTag override the daemonset image when both
	// are set.
	ImageName string
	ImageTag  string

	// AccessToken is stored in the agent secret.
	AccessToken string

	// Manifest path overrides. Empty fields resolve through the AGENT_*
	// environment variables and the stock deployments/k8s directory.
	ServiceAccountPath     string
	ClusterRolePath        string
	ClusterRoleBindingPath string
	ConfigMapPath          string
	DaemonSetPath          string

	// ReadyTimeout bounds the daemonset readiness wait, EnsureWindow is
	// how long readiness must hold, PollInterval the probe spacing.
	// Zero values take the pkg/defaults timings.
	ReadyTimeout time.Duration
	EnsureWindow time.Duration
	PollInterval time.Duration
}

// withDefaults resolves every unset field to its default.
func (o Options) withDefaults() Options {
	if o.ClusterName == "" {
		o.ClusterName = DefaultClusterName
	}
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.AccessToken == "" {
		o.AccessToken = DefaultAccessToken
	}
	if o.ServiceAccountPath == "" {
		o.ServiceAccountPath = manifestPath(envServiceAccountPath, "serviceaccount.yaml")
	}
	if o.ClusterRolePath == "" {
		o.ClusterRolePath = manifestPath(envClusterRolePath, "clusterrole.yaml")
	}
	if o.ClusterRoleBindingPath == "" {
		o.ClusterRoleBindingPath = manifestPath(envClusterRoleBindingPath, "clusterrolebinding.yaml")
	}
	if o.ConfigMapPath == "" {
		o.ConfigMapPath = manifestPath(envConfigMapPath, "configmap.yaml")
	}
	if o.DaemonSetPath == "" {
		o.DaemonSetPath = manifestPath(envDaemonSetPath, "daemonset.yaml")
	}
	if o.ReadyTimeout == 0 {
		o.ReadyTimeout = defaults.WaitTimeout
	}
	if o.EnsureWindow == 0 {
		o.EnsureWindow = defaults.EnsureWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.WaitInterval
	}
	return o
}

// Deployer manages the agent daemonset and its supporting resources.
type Deployer struct {
	clientset  kubernetes.Interface
	restConfig *rest.Config
	resources  *resource.Client
	opts       Options

	execInPod execFunc

	// resolved during Deploy
	serviceAccountName     string
	clusterRoleName        string
	clusterRoleBindingName string
	configMapName          string
	daemonSetName          string
	daemonSetLabels        map[string]string
	pods                   []corev1.Pod
}

// NewDeployer creates an agent Deployer. restConfig backs pod exec and
// may be nil when Status will not be called.
func NewDeployer(clientset kubernetes.Interface, restConfig *rest.Config, opts Options) *Deployer {
	return &Deployer{
		clientset:  clientset,
		restConfig: restConfig,
		resources:  resource.NewClient(clientset),
		opts:       opts.withDefaults(),
		execInPod:  client.ExecInPod,
	}
}

// Pods returns the agent pods resolved by the last Deploy.
func (d *Deployer) Pods() []corev1.Pod {
	return d.pods
}
