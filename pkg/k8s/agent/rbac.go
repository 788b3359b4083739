/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/signalfx/agent-test-harness/pkg/k8s/resource"
)

// ensureSecret creates the access-token secret. If the secret already
// exists it is left untouched so the token survives redeployments.
func (d *Deployer) ensureSecret(ctx context.Context) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      SecretName,
			Namespace: d.opts.Namespace,
		},
		StringData: map[string]string{SecretKey: d.opts.AccessToken},
	}

	slog.Info("creating secret", slog.String("name", SecretName))
	_, err := d.clientset.CoreV1().Secrets(d.opts.Namespace).Create(ctx, secret, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

// ensureServiceAccount creates the agent ServiceAccount from its
// manifest. If the ServiceAccount already exists, this is a no-op.
func (d *Deployer) ensureServiceAccount(ctx context.Context) error {
	obj, err := loadObject(d.opts.ServiceAccountPath, resource.KindServiceAccount)
	if err != nil {
		return err
	}
	obj.EnsureNamespace(d.opts.Namespace)
	d.serviceAccountName = obj.Name()

	slog.Info("creating service account",
		slog.String("name", d.serviceAccountName),
		slog.String("file", d.opts.ServiceAccountPath))
	_, err = d.clientset.CoreV1().ServiceAccounts(d.opts.Namespace).
		Create(ctx, obj.Raw.(*corev1.ServiceAccount), metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

// ensureClusterRoleAndBinding creates the agent ClusterRole and its
// binding from their manifests. Outside the default namespace both names
// gain a "-<namespace>" suffix so parallel deployments cannot collide;
// the binding's roleRef follows the rename and every subject is pinned
// to the deployment namespace. Existing objects are reused.
func (d *Deployer) ensureClusterRoleAndBinding(ctx context.Context) error {
	roleObj, err := loadObject(d.opts.ClusterRolePath, resource.KindClusterRole)
	if err != nil {
		return err
	}
	role := roleObj.Raw.(*rbacv1.ClusterRole)

	bindingObj, err := loadObject(d.opts.ClusterRoleBindingPath, resource.KindClusterRoleBinding)
	if err != nil {
		return err
	}
	binding := bindingObj.Raw.(*rbacv1.ClusterRoleBinding)

	if d.opts.Namespace != DefaultNamespace {
		role.Name = role.Name + "-" + d.opts.Namespace
		binding.Name = binding.Name + "-" + d.opts.Namespace
	}
	if binding.RoleRef.Kind == "ClusterRole" {
		binding.RoleRef.Name = role.Name
	}
	for i := range binding.Subjects {
		binding.Subjects[i].Namespace = d.opts.Namespace
	}
	d.clusterRoleName = role.Name
	d.clusterRoleBindingName = binding.Name

	slog.Info("creating cluster role",
		slog.String("name", role.Name),
		slog.String("file", d.opts.ClusterRolePath))
	_, err = d.clientset.RbacV1().ClusterRoles().Create(ctx, role, metav1.CreateOptions{})
	if err = ignoreAlreadyExists(err); err != nil {
		return err
	}

	slog.Info("creating cluster role binding",
		slog.String("name", binding.Name),
		slog.String("file", d.opts.ClusterRoleBindingPath))
	_, err = d.clientset.RbacV1().ClusterRoleBindings().Create(ctx, binding, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}
