/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package resource

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Kind enumerates the resource kinds the harness manages. The set is
// closed: Decode rejects documents of any other kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindServiceAccount
	KindSecret
	KindConfigMap
	KindDaemonSet
	KindDeployment
	KindPod
	KindService
	KindNamespace
	KindClusterRole
	KindClusterRoleBinding
)

func (k Kind) String() string {
	switch k {
	case KindServiceAccount:
		return "ServiceAccount"
	case KindSecret:
		return "Secret"
	case KindConfigMap:
		return "ConfigMap"
	case KindDaemonSet:
		return "DaemonSet"
	case KindDeployment:
		return "Deployment"
	case KindPod:
		return "Pod"
	case KindService:
		return "Service"
	case KindNamespace:
		return "Namespace"
	case KindClusterRole:
		return "ClusterRole"
	case KindClusterRoleBinding:
		return "ClusterRoleBinding"
	default:
		return "Unknown"
	}
}

// Namespaced reports whether objects of this kind live inside a
// namespace.
func (k Kind) Namespaced() bool {
	switch k {
	case KindNamespace, KindClusterRole, KindClusterRoleBinding:
		return false
	default:
		return true
	}
}

// kindOf classifies a decoded runtime object. KindUnknown means the type
// is outside the managed set.
func kindOf(obj runtime.Object) Kind {
	switch obj.(type) {
	case *corev1.ServiceAccount:
		return KindServiceAccount
	case *corev1.Secret:
		return KindSecret
	case *corev1.ConfigMap:
		return KindConfigMap
	case *appsv1.DaemonSet:
		return KindDaemonSet
	case *appsv1.Deployment:
		return KindDeployment
	case *corev1.Pod:
		return KindPod
	case *corev1.Service:
		return KindService
	case *corev1.Namespace:
		return KindNamespace
	case *rbacv1.ClusterRole:
		return KindClusterRole
	case *rbacv1.ClusterRoleBinding:
		return KindClusterRoleBinding
	default:
		return KindUnknown
	}
}
