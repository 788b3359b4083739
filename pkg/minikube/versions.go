/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package minikube

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/releases"
	"github.com/signalfx/agent-test-harness/pkg/version"
)

const (
	// LocalkubeVersion is the minikube build used for Kubernetes versions
	// predating kubeadm bootstrap.
	LocalkubeVersion = "v0.28.2"

	// KubeadmVersion is the minikube build used for kubeadm-era
	// Kubernetes versions.
	KubeadmVersion = "v0.33.1"

	// MinK8sVersion is the oldest Kubernetes version the harness accepts.
	MinK8sVersion = "1.7.0"

	// MinKubeadmK8sVersion is the oldest Kubernetes version bootstrapped
	// with kubeadm instead of localkube.
	MinKubeadmK8sVersion = "1.11.0"
)

const (
	// DockerPort is the nested Docker engine's API port inside the
	// cluster container.
	DockerPort = 2375

	// APIPort is the nested Kubernetes API server port.
	APIPort = 8443

	// RegistryPort is the default port reserved for the in-cluster image
	// registry.
	RegistryPort = 5000
)

const (
	envMinikubeVersion = "MINIKUBE_VERSION"
	envImageTimeout    = "MINIKUBE_IMAGE_TIMEOUT"
)

var (
	minK8s         = version.MustParse(MinK8sVersion)
	minKubeadmK8s  = version.MustParse(MinKubeadmK8sVersion)
	localkubeBuild = version.MustParse(LocalkubeVersion)
	kubeadmBuild   = version.MustParse(KubeadmVersion)
)

// resolveK8sVersion validates a requested Kubernetes version against the
// supported range [MinK8sVersion, latest known]. "latest" resolves through
// the release index; a leading "v" is accepted. Validation failures are
// fatal and never retried.
func resolveK8sVersion(ctx context.Context, index *releases.Client, requested string) (version.Version, error) {
	latest, err := index.Latest(ctx)
	if err != nil {
		return version.Version{}, err
	}
	latestVersion, err := version.Parse(latest)
	if err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeInvalidVersion,
			fmt.Sprintf("release index returned unparseable version %q", latest), err)
	}

	if strings.EqualFold(requested, "latest") {
		requested = latest
	}
	v, err := version.Parse(requested)
	if err != nil {
		return version.Version{}, errors.Wrap(errors.ErrCodeInvalidVersion,
			fmt.Sprintf("invalid kubernetes version %q", requested), err)
	}
	if !v.AtLeast(minK8s) {
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidVersion,
			"kubernetes version %s not supported, minimum is %s", v, MinK8sVersion)
	}
	if v.Newer(latestVersion) {
		return version.Version{}, errors.Newf(errors.ErrCodeInvalidVersion,
			"kubernetes version %s not supported, latest is %s", v, latestVersion)
	}
	return v, nil
}

// minikubeVersion picks the minikube build matching a Kubernetes version.
// MINIKUBE_VERSION overrides the selection.
func minikubeVersion(k8s version.Version) (version.Version, error) {
	if env := os.Getenv(envMinikubeVersion); env != "" {
		v, err := version.Parse(env)
		if err != nil {
			return version.Version{}, errors.Wrap(errors.ErrCodeInvalidVersion,
				fmt.Sprintf("invalid %s value %q", envMinikubeVersion, env), err)
		}
		return v, nil
	}
	if k8s.AtLeast(minKubeadmK8s) {
		return kubeadmBuild, nil
	}
	return localkubeBuild, nil
}

// minikubeImage is the image reference for a minikube build.
func minikubeImage(v version.Version) string {
	return "minikube:" + v.Tag()
}

// imageWaitTimeout resolves the wait budget for the minikube image to show
// up locally. MINIKUBE_IMAGE_TIMEOUT holds seconds.
func imageWaitTimeout() time.Duration {
	if env := os.Getenv(envImageTimeout); env != "" {
		if secs, err := strconv.Atoi(env); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaults.ClusterTimeout
}
