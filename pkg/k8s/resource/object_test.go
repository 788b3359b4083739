package resource

import (
	"errors"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const daemonsetManifest = `apiVersion: apps/v1
kind: DaemonSet
metadata:
  name: signalfx-agent
  namespace: monitoring
spec:
  selector:
    matchLabels:
      app: signalfx-agent
`

func TestDecode(t *testing.T) {
	obj, err := Decode([]byte(daemonsetManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj.Kind != KindDaemonSet {
		t.Errorf("expected KindDaemonSet, got %s", obj.Kind)
	}
	if obj.Name() != "signalfx-agent" {
		t.Errorf("expected name signalfx-agent, got %q", obj.Name())
	}
	if obj.Namespace() != "monitoring" {
		t.Errorf("expected namespace monitoring, got %q", obj.Namespace())
	}
}

func TestDecodeUnsupportedKind(t *testing.T) {
	// Role is registered in the client-go scheme but outside the managed
	// set, so the closed-enum gate has to reject it.
	doc := `apiVersion: rbac.authorization.k8s.io/v1
kind: Role
metadata:
  name: extra
`
	_, err := Decode([]byte(doc))
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestDecodeUnregisteredKind(t *testing.T) {
	doc := `apiVersion: example.com/v1
kind: Widget
metadata:
  name: thing
`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatal("expected decode error for unregistered kind")
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("not: [valid")); err == nil {
		t.Fatal("expected decode error for malformed document")
	}
}

func TestDecodeAll(t *testing.T) {
	stream := `apiVersion: v1
kind: ServiceAccount
metadata:
  name: signalfx-agent
---
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: signalfx-agent
data:
  agent.yaml: "monitors: []"
`
	objects, err := DecodeAll(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
	if objects[0].Kind != KindServiceAccount {
		t.Errorf("expected ServiceAccount first, got %s", objects[0].Kind)
	}
	if objects[1].Kind != KindConfigMap {
		t.Errorf("expected ConfigMap second, got %s", objects[1].Kind)
	}
}

func TestEnsureNamespace(t *testing.T) {
	t.Run("stamps unset namespace", func(t *testing.T) {
		obj := FromTyped(&corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "cm"}})
		obj.EnsureNamespace("ns1")
		if obj.Namespace() != "ns1" {
			t.Errorf("expected ns1, got %q", obj.Namespace())
		}
	})

	t.Run("keeps manifest namespace", func(t *testing.T) {
		obj := FromTyped(&corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "cm", Namespace: "keep"}})
		obj.EnsureNamespace("ns1")
		if obj.Namespace() != "keep" {
			t.Errorf("expected keep, got %q", obj.Namespace())
		}
	})

	t.Run("skips cluster-scoped kinds", func(t *testing.T) {
		obj := FromTyped(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "ns"}})
		obj.EnsureNamespace("ns1")
		if obj.Namespace() != "" {
			t.Errorf("expected empty namespace, got %q", obj.Namespace())
		}
	})
}

func TestFromTyped(t *testing.T) {
	obj := FromTyped(&corev1.Secret{ObjectMeta: metav1.ObjectMeta{Name: "signalfx-agent"}})
	if obj.Kind != KindSecret {
		t.Errorf("expected KindSecret, got %s", obj.Kind)
	}
	if obj.Name() != "signalfx-agent" {
		t.Errorf("expected name signalfx-agent, got %q", obj.Name())
	}
}

func TestFromTypedPanicsOnUnsupported(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported type")
		}
	}()
	FromTyped(&corev1.Endpoints{})
}
