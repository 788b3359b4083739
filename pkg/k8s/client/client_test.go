package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://172.17.0.2:8443
    insecure-skip-tls-verify: true
  name: minikube
contexts:
- context:
    cluster: minikube
    user: minikube
  name: minikube
current-context: minikube
users:
- name: minikube
  user:
    username: admin
    password: admin
`

// TestBuildKubeClient_PathResolution tests the kubeconfig path resolution
// logic without attempting to connect to a cluster.
func TestBuildKubeClient_PathResolution(t *testing.T) {
	originalKubeconfig := os.Getenv("KUBECONFIG")
	defer func() {
		if originalKubeconfig != "" {
			os.Setenv("KUBECONFIG", originalKubeconfig)
		} else {
			os.Unsetenv("KUBECONFIG")
		}
	}()

	tests := []struct {
		name          string
		kubeconfigArg string
		kubeconfigEnv string
		wantErr       bool
		errorContains string
	}{
		{
			name:          "explicit invalid path",
			kubeconfigArg: "/nonexistent/path/to/kubeconfig",
			wantErr:       true,
			errorContains: "failed to build kube config",
		},
		{
			name:          "env var with invalid path",
			kubeconfigArg: "",
			kubeconfigEnv: "/nonexistent/env/kubeconfig",
			wantErr:       true,
			errorContains: "failed to build kube config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kubeconfigEnv != "" {
				os.Setenv("KUBECONFIG", tt.kubeconfigEnv)
			} else {
				os.Unsetenv("KUBECONFIG")
			}

			_, _, err := BuildKubeClient(tt.kubeconfigArg)

			if (err != nil) != tt.wantErr {
				t.Errorf("BuildKubeClient() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err != nil && tt.errorContains != "" {
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("BuildKubeClient() error = %v, want error containing %q", err, tt.errorContains)
				}
			}
		})
	}
}

// TestBuildKubeClient_ExplicitPath tests BuildKubeClient with an explicit
// kubeconfig path holding invalid content.
func TestBuildKubeClient_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	invalidConfig := filepath.Join(tmpDir, "invalid-kubeconfig")

	if err := os.WriteFile(invalidConfig, []byte("invalid yaml content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, _, err := BuildKubeClient(invalidConfig)
	if err == nil {
		t.Error("BuildKubeClient() with invalid config should return error")
	}

	if !strings.Contains(err.Error(), "failed to build kube config") {
		t.Errorf("BuildKubeClient() error = %v, want error containing 'failed to build kube config'", err)
	}
}

func TestBuildKubeClient_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "kubeconfig")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	clientset, config, err := BuildKubeClient(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clientset == nil {
		t.Fatal("expected a clientset")
	}
	if config.Host != "https://172.17.0.2:8443" {
		t.Errorf("config host = %q, want %q", config.Host, "https://172.17.0.2:8443")
	}
}

func TestFromKubeconfig(t *testing.T) {
	clientset, config, err := FromKubeconfig([]byte(testKubeconfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clientset == nil {
		t.Fatal("expected a clientset")
	}
	if config.Host != "https://172.17.0.2:8443" {
		t.Errorf("config host = %q, want %q", config.Host, "https://172.17.0.2:8443")
	}
}

func TestFromKubeconfigInvalid(t *testing.T) {
	_, _, err := FromKubeconfig([]byte("not: [a, kubeconfig"))
	if err == nil {
		t.Error("expected error for malformed kubeconfig bytes")
	}
}

func TestClusterName(t *testing.T) {
	name, err := ClusterName([]byte(testKubeconfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "minikube" {
		t.Errorf("ClusterName() = %q, want %q", name, "minikube")
	}
}

func TestClusterNameMissingContext(t *testing.T) {
	broken := strings.Replace(testKubeconfig, "current-context: minikube", "current-context: other", 1)
	_, err := ClusterName([]byte(broken))
	if err == nil {
		t.Error("expected error when the current context does not exist")
	}
}

// TestGetKubeClient_Singleton tests that GetKubeClient returns the same
// instance on every call.
func TestGetKubeClient_Singleton(t *testing.T) {
	clientOnce = sync.Once{}
	cachedClient = nil
	cachedConfig = nil
	clientErr = nil

	defer func() {
		clientOnce = sync.Once{}
		cachedClient = nil
		cachedConfig = nil
		clientErr = nil
	}()

	client1, config1, err1 := GetKubeClient()
	client2, config2, err2 := GetKubeClient()

	// Both calls must return the exact same results, whether discovery
	// succeeded or not.
	// nolint:errorlint // intentionally checking pointer equality
	if err1 != err2 {
		t.Errorf("GetKubeClient() should return same error instance: first=%v, second=%v", err1, err2)
	}
	if client1 != client2 {
		t.Error("GetKubeClient() should return the same client instance")
	}
	if config1 != config2 {
		t.Error("GetKubeClient() should return the same config instance")
	}
}
