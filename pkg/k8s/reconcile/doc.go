/*
Package reconcile applies Kubernetes manifest files to a cluster and
guarantees their removal when the work they supported is done.

Apply parses every document of every manifest file (multi-document YAML
included), fills in a default namespace, replaces objects that already
exist, and records each object in application order. Every applied
Deployment is then waited to rollout completion; when a rollout stalls
the deployment and pod descriptions are logged before the error
propagates.

The returned Release tears everything down in the same order it went up,
so a defer is all a caller needs:

	release, err := reconcile.Apply(ctx, clientset, reconcile.Options{
		Files:     []string{"testdata/nginx.yaml"},
		Namespace: "default",
	})
	defer release.Delete(context.Background())
	if err != nil {
		return err
	}

With packages the same sequence as a scoped call: apply, run the body,
tear down. Teardown runs even when apply fails partway through or the
body returns an error.

No dependency ordering is computed between objects; input order is
preserved on the way up and on the way down.
*/
package reconcile
