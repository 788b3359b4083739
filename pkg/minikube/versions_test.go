package minikube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalfx/agent-test-harness/pkg/defaults"
	"github.com/signalfx/agent-test-harness/pkg/errors"
	"github.com/signalfx/agent-test-harness/pkg/releases"
	"github.com/signalfx/agent-test-harness/pkg/version"
)

func testIndex(t *testing.T, latest string) *releases.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, latest)
	}))
	t.Cleanup(srv.Close)
	return releases.NewClient(releases.Config{
		URL:        srv.URL,
		Attempts:   1,
		RetryDelay: time.Millisecond,
	})
}

func TestResolveK8sVersion(t *testing.T) {
	tests := []struct {
		name        string
		requested   string
		latest      string
		want        string
		wantErr     bool
		errContains string
	}{
		{
			name:      "latest resolves through the index",
			requested: "latest",
			latest:    "v1.18.0",
			want:      "1.18.0",
		},
		{
			name:      "latest is case insensitive",
			requested: "Latest",
			latest:    "v1.18.0",
			want:      "1.18.0",
		},
		{
			name:      "explicit version",
			requested: "1.15.0",
			latest:    "v1.18.0",
			want:      "1.15.0",
		},
		{
			name:      "v prefix accepted",
			requested: "v1.15.0",
			latest:    "v1.18.0",
			want:      "1.15.0",
		},
		{
			name:        "below the supported minimum",
			requested:   "1.6.5",
			latest:      "v1.18.0",
			wantErr:     true,
			errContains: "minimum is 1.7.0",
		},
		{
			name:        "newer than the latest release",
			requested:   "1.19.0",
			latest:      "v1.18.0",
			wantErr:     true,
			errContains: "latest is 1.18.0",
		},
		{
			name:        "not a version",
			requested:   "one.two.three",
			latest:      "v1.18.0",
			wantErr:     true,
			errContains: "invalid kubernetes version",
		},
		{
			name:        "broken release index",
			requested:   "1.15.0",
			latest:      "not-a-version",
			wantErr:     true,
			errContains: "unparseable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveK8sVersion(context.Background(), testIndex(t, tt.latest), tt.requested)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.IsCode(err, errors.ErrCodeInvalidVersion) {
					t.Errorf("error code = %v, want invalid version", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("resolved version = %s, want %s", got, tt.want)
			}
		})
	}
}

// The index is consulted even for explicit versions; it bounds what the
// harness accepts.
func TestResolveK8sVersionAlwaysQueriesIndex(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprintln(w, "v1.18.0")
	}))
	t.Cleanup(srv.Close)
	index := releases.NewClient(releases.Config{URL: srv.URL, Attempts: 1, RetryDelay: time.Millisecond})

	if _, err := resolveK8sVersion(context.Background(), index, "1.15.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("index hits = %d, want 1", hits.Load())
	}
}

func TestMinikubeVersion(t *testing.T) {
	tests := []struct {
		name string
		k8s  string
		want string
	}{
		{"pre-kubeadm versions use localkube", "1.10.3", LocalkubeVersion},
		{"kubeadm boundary", "1.11.0", KubeadmVersion},
		{"modern versions use kubeadm", "1.18.0", KubeadmVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := minikubeVersion(version.MustParse(tt.k8s))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Tag() != tt.want {
				t.Errorf("minikube version = %s, want %s", got.Tag(), tt.want)
			}
		})
	}
}

func TestMinikubeVersionEnvOverride(t *testing.T) {
	t.Setenv(envMinikubeVersion, "v0.30.0")

	got, err := minikubeVersion(version.MustParse("1.18.0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tag() != "v0.30.0" {
		t.Errorf("minikube version = %s, want v0.30.0", got.Tag())
	}
}

func TestMinikubeVersionEnvInvalid(t *testing.T) {
	t.Setenv(envMinikubeVersion, "stable")

	_, err := minikubeVersion(version.MustParse("1.18.0"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidVersion) {
		t.Errorf("error code = %v, want invalid version", err)
	}
	if !strings.Contains(err.Error(), envMinikubeVersion) {
		t.Errorf("error = %v, want naming %s", err, envMinikubeVersion)
	}
}

func TestMinikubeImage(t *testing.T) {
	if got := minikubeImage(kubeadmBuild); got != "minikube:"+KubeadmVersion {
		t.Errorf("image = %s, want minikube:%s", got, KubeadmVersion)
	}
}

func TestImageWaitTimeout(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want time.Duration
	}{
		{"default", "", defaults.ClusterTimeout},
		{"env seconds", "90", 90 * time.Second},
		{"zero falls back", "0", defaults.ClusterTimeout},
		{"negative falls back", "-5", defaults.ClusterTimeout},
		{"junk falls back", "soon", defaults.ClusterTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envImageTimeout, tt.env)
			if got := imageWaitTimeout(); got != tt.want {
				t.Errorf("timeout = %v, want %v", got, tt.want)
			}
		})
	}
}
