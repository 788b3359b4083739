/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package resource

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
)

// Client dispatches CRUD operations for the managed kinds onto a
// clientset.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient creates a resource client over the given clientset.
func NewClient(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// Exists reports whether an object of the same kind, name, and namespace
// is present in the cluster.
func (c *Client) Exists(ctx context.Context, obj Object) (bool, error) {
	name, ns := obj.Name(), obj.Namespace()
	var err error

	switch obj.Kind {
	case KindServiceAccount:
		_, err = c.clientset.CoreV1().ServiceAccounts(ns).Get(ctx, name, metav1.GetOptions{})
	case KindSecret:
		_, err = c.clientset.CoreV1().Secrets(ns).Get(ctx, name, metav1.GetOptions{})
	case KindConfigMap:
		_, err = c.clientset.CoreV1().ConfigMaps(ns).Get(ctx, name, metav1.GetOptions{})
	case KindDaemonSet:
		_, err = c.clientset.AppsV1().DaemonSets(ns).Get(ctx, name, metav1.GetOptions{})
	case KindDeployment:
		_, err = c.clientset.AppsV1().Deployments(ns).Get(ctx, name, metav1.GetOptions{})
	case KindPod:
		_, err = c.clientset.CoreV1().Pods(ns).Get(ctx, name, metav1.GetOptions{})
	case KindService:
		_, err = c.clientset.CoreV1().Services(ns).Get(ctx, name, metav1.GetOptions{})
	case KindNamespace:
		_, err = c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	case KindClusterRole:
		_, err = c.clientset.RbacV1().ClusterRoles().Get(ctx, name, metav1.GetOptions{})
	case KindClusterRoleBinding:
		_, err = c.clientset.RbacV1().ClusterRoleBindings().Get(ctx, name, metav1.GetOptions{})
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedKind, obj.Kind)
	}

	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s %q: %w", obj.Kind, name, err)
	}
	return true, nil
}

// Create creates the object in the cluster. An already-existing object of
// the same name is treated as success.
func (c *Client) Create(ctx context.Context, obj Object) error {
	ns := obj.Namespace()
	opts := metav1.CreateOptions{}
	var err error

	switch obj.Kind {
	case KindServiceAccount:
		_, err = c.clientset.CoreV1().ServiceAccounts(ns).Create(ctx, obj.Raw.(*corev1.ServiceAccount), opts)
	case KindSecret:
		_, err = c.clientset.CoreV1().Secrets(ns).Create(ctx, obj.Raw.(*corev1.Secret), opts)
	case KindConfigMap:
		_, err = c.clientset.CoreV1().ConfigMaps(ns).Create(ctx, obj.Raw.(*corev1.ConfigMap), opts)
	case KindDaemonSet:
		_, err = c.clientset.AppsV1().DaemonSets(ns).Create(ctx, obj.Raw.(*appsv1.DaemonSet), opts)
	case KindDeployment:
		_, err = c.clientset.AppsV1().Deployments(ns).Create(ctx, obj.Raw.(*appsv1.Deployment), opts)
	case KindPod:
		_, err = c.clientset.CoreV1().Pods(ns).Create(ctx, obj.Raw.(*corev1.Pod), opts)
	case KindService:
		_, err = c.clientset.CoreV1().Services(ns).Create(ctx, obj.Raw.(*corev1.Service), opts)
	case KindNamespace:
		_, err = c.clientset.CoreV1().Namespaces().Create(ctx, obj.Raw.(*corev1.Namespace), opts)
	case KindClusterRole:
		_, err = c.clientset.RbacV1().ClusterRoles().Create(ctx, obj.Raw.(*rbacv1.ClusterRole), opts)
	case KindClusterRoleBinding:
		_, err = c.clientset.RbacV1().ClusterRoleBindings().Create(ctx, obj.Raw.(*rbacv1.ClusterRoleBinding), opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, obj.Kind)
	}

	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create %s %q: %w", obj.Kind, obj.Name(), err)
	}
	return nil
}

// Delete removes the object from the cluster. An absent object is treated
// as success. Workload kinds are deleted with foreground propagation so
// their pods are gone before the delete is considered done.
func (c *Client) Delete(ctx context.Context, obj Object) error {
	name, ns := obj.Name(), obj.Namespace()
	opts := deleteOptions(obj.Kind)
	var err error

	switch obj.Kind {
	case KindServiceAccount:
		err = c.clientset.CoreV1().ServiceAccounts(ns).Delete(ctx, name, opts)
	case KindSecret:
		err = c.clientset.CoreV1().Secrets(ns).Delete(ctx, name, opts)
	case KindConfigMap:
		err = c.clientset.CoreV1().ConfigMaps(ns).Delete(ctx, name, opts)
	case KindDaemonSet:
		err = c.clientset.AppsV1().DaemonSets(ns).Delete(ctx, name, opts)
	case KindDeployment:
		err = c.clientset.AppsV1().Deployments(ns).Delete(ctx, name, opts)
	case KindPod:
		err = c.clientset.CoreV1().Pods(ns).Delete(ctx, name, opts)
	case KindService:
		err = c.clientset.CoreV1().Services(ns).Delete(ctx, name, opts)
	case KindNamespace:
		err = c.clientset.CoreV1().Namespaces().Delete(ctx, name, opts)
	case KindClusterRole:
		err = c.clientset.RbacV1().ClusterRoles().Delete(ctx, name, opts)
	case KindClusterRoleBinding:
		err = c.clientset.RbacV1().ClusterRoleBindings().Delete(ctx, name, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, obj.Kind)
	}

	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s %q: %w", obj.Kind, name, err)
	}
	return nil
}

// WaitDeleted polls until the object is no longer present. Delete does
// not wait; replace flows call Delete then WaitDeleted before recreating.
func (c *Client) WaitDeleted(ctx context.Context, obj Object) error {
	err := wait.PollUntilContextTimeout(ctx, defaults.DeletePollInterval, defaults.DeleteTimeout, true,
		func(ctx context.Context) (bool, error) {
			exists, err := c.Exists(ctx, obj)
			if err != nil {
				return false, err
			}
			return !exists, nil
		})
	if err != nil {
		return fmt.Errorf("timed out waiting for %s %q to be deleted: %w", obj.Kind, obj.Name(), err)
	}
	return nil
}

// Replace deletes any existing object of the same name and recreates it
// from obj, guaranteeing a clean state rather than patching in place.
func (c *Client) Replace(ctx context.Context, obj Object) error {
	exists, err := c.Exists(ctx, obj)
	if err != nil {
		return err
	}
	if exists {
		if err := c.Delete(ctx, obj); err != nil {
			return err
		}
		if err := c.WaitDeleted(ctx, obj); err != nil {
			return err
		}
	}
	return c.Create(ctx, obj)
}

func deleteOptions(kind Kind) metav1.DeleteOptions {
	switch kind {
	case KindDaemonSet, KindDeployment:
		// Workload pods go with their controller instead of lingering.
		return metav1.DeleteOptions{PropagationPolicy: ptr.To(metav1.DeletePropagationForeground)}
	default:
		return metav1.DeleteOptions{}
	}
}
