// Package resource is the typed resource layer under the manifest
// reconciler and the agent deployer. Manifest documents decode into an
// Object carrying a closed Kind; the Client dispatches CRUD per kind onto
// the matching typed clientset API.
//
// The closed Kind set replaces dispatch on manifest kind strings: decoding
// an unsupported kind fails immediately instead of surfacing later as a
// missing branch, and adding a kind means extending the enum and every
// switch over it.
//
// Error absorption happens at this boundary: Create treats an
// already-existing resource as success, Delete treats an absent one as
// success. Callers see errors only for states that are genuinely not the
// one they asked for.
package resource
