/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package agent

import (
	"context"
	"fmt"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionCheck represents a single permission check result.
type PermissionCheck struct {
	Group       string
	Resource    string
	Subresource string
	Verb        string
	Namespace   string
	Allowed     bool
	Reason      string
}

// CheckPermissions verifies the current identity can perform every write
// and read the deployment needs. Returns the individual check results
// and an error listing every missing permission.
func (d *Deployer) CheckPermissions(ctx context.Context) ([]PermissionCheck, error) {
	checks := []PermissionCheck{}
	ns := d.opts.Namespace

	requiredChecks := []struct {
		group       string
		resource    string
		subresource string
		verb        string
		namespace   string
	}{
		// Namespace-scoped resources
		{"", "secrets", "", "create", ns},
		{"", "serviceaccounts", "", "create", ns},
		{"", "configmaps", "", "create", ns},
		{"", "configmaps", "", "delete", ns},
		{"apps", "daemonsets", "", "create", ns},
		{"apps", "daemonsets", "", "delete", ns},
		{"", "pods", "", "list", ns},
		{"", "pods", "exec", "create", ns},
		{"", "pods", "log", "get", ns},

		// Cluster-scoped resources
		{"rbac.authorization.k8s.io", "clusterroles", "", "create", ""},
		{"rbac.authorization.k8s.io", "clusterrolebindings", "", "create", ""},
	}

	var missingPermissions []string

	for _, check := range requiredChecks {
		allowed, reason, err := d.checkPermission(ctx, check.group, check.resource, check.subresource, check.verb, check.namespace)
		if err != nil {
			return checks, fmt.Errorf("failed to check permission for %s %s: %w", check.verb, check.resource, err)
		}

		result := PermissionCheck{
			Group:       check.group,
			Resource:    check.resource,
			Subresource: check.subresource,
			Verb:        check.verb,
			Namespace:   check.namespace,
			Allowed:     allowed,
			Reason:      reason,
		}
		checks = append(checks, result)

		if !allowed {
			scope := "cluster-scoped"
			if check.namespace != "" {
				scope = fmt.Sprintf("namespace %q", check.namespace)
			}
			display := check.resource
			if check.subresource != "" {
				display = check.resource + "/" + check.subresource
			}
			missingPermissions = append(missingPermissions,
				fmt.Sprintf("%s %s (%s)", check.verb, display, scope))
		}
	}

	if len(missingPermissions) > 0 {
		return checks, fmt.Errorf("missing required permissions:\n  - %s",
			strings.Join(missingPermissions, "\n  - "))
	}

	return checks, nil
}

// checkPermission checks if the current identity can perform the
// specified action.
func (d *Deployer) checkPermission(ctx context.Context, group, resource, subresource, verb, namespace string) (bool, string, error) {
	review := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Group:       group,
				Verb:        verb,
				Resource:    resource,
				Subresource: subresource,
				Namespace:   namespace,
			},
		},
	}

	result, err := d.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, "", err
	}

	return result.Status.Allowed, result.Status.Reason, nil
}
