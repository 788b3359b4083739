/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"os"
	"path/filepath"
)

const (
	envYAMLsDir               = "AGENT_YAMLS_DIR"
	envConfigMapPath          = "AGENT_CONFIGMAP_PATH"
	envDaemonSetPath          = "AGENT_DAEMONSET_PATH"
	envServiceAccountPath     = "AGENT_SERVICEACCOUNT_PATH"
	envClusterRolePath        = "AGENT_CLUSTERROLE_PATH"
	envClusterRoleBindingPath = "AGENT_CLUSTERROLEBINDING_PATH"
	envInternalStatusHost     = "INTERNAL_STATUS_HOST"
)

// defaultYAMLsDir holds the stock agent manifests, relative to the
// working directory.
const defaultYAMLsDir = "deployments/k8s"

const defaultInternalStatusHost = "localhost"

func yamlsDir() string {
	if dir := os.Getenv(envYAMLsDir); dir != "" {
		return dir
	}
	return defaultYAMLsDir
}

// manifestPath resolves a manifest location: the per-manifest env
// override wins, then the named file under the manifest directory.
func manifestPath(env, file string) string {
	if path := os.Getenv(env); path != "" {
		return path
	}
	return filepath.Join(yamlsDir(), file)
}

// internalStatusHost is the host the agent binds its internal status
// server to.
func internalStatusHost() string {
	if host := os.Getenv(envInternalStatusHost); host != "" {
		return host
	}
	return defaultInternalStatusHost
}
