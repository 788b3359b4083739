package resource

import (
	"context"
	"errors"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func testConfigMap(name, namespace, value string) Object {
	return FromTyped(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Data:       map[string]string{"agent.yaml": value},
	})
}

func TestClientCreateAndExists(t *testing.T) {
	clientset := fake.NewClientset()
	client := NewClient(clientset)
	ctx := context.Background()
	obj := testConfigMap("signalfx-agent", "default", "monitors: []")

	exists, err := client.Exists(ctx, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("object should not exist before create")
	}

	if err := client.Create(ctx, obj); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	exists, err = client.Exists(ctx, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("object should exist after create")
	}
}

func TestClientCreateAlreadyExists(t *testing.T) {
	clientset := fake.NewClientset()
	client := NewClient(clientset)
	ctx := context.Background()
	obj := testConfigMap("signalfx-agent", "default", "monitors: []")

	if err := client.Create(ctx, obj); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := client.Create(ctx, obj); err != nil {
		t.Fatalf("second create should be absorbed: %v", err)
	}

	list, err := clientset.CoreV1().ConfigMaps("default").List(ctx, metav1.ListOptions{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list.Items) != 1 {
		t.Errorf("expected 1 config map, got %d", len(list.Items))
	}
}

func TestClientDelete(t *testing.T) {
	clientset := fake.NewClientset()
	client := NewClient(clientset)
	ctx := context.Background()
	obj := testConfigMap("signalfx-agent", "default", "monitors: []")

	if err := client.Create(ctx, obj); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := client.Delete(ctx, obj); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err := client.Exists(ctx, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("object should not exist after delete")
	}
}

func TestClientDeleteAbsent(t *testing.T) {
	client := NewClient(fake.NewClientset())
	obj := testConfigMap("never-created", "default", "")

	if err := client.Delete(context.Background(), obj); err != nil {
		t.Errorf("deleting an absent object should be absorbed, got %v", err)
	}
}

func TestClientWaitDeleted(t *testing.T) {
	clientset := fake.NewClientset()
	client := NewClient(clientset)
	ctx := context.Background()
	obj := testConfigMap("signalfx-agent", "default", "monitors: []")

	if err := client.Create(ctx, obj); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := client.Delete(ctx, obj); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := client.WaitDeleted(ctx, obj); err != nil {
		t.Errorf("WaitDeleted should succeed for a deleted object: %v", err)
	}
}

func TestClientReplace(t *testing.T) {
	clientset := fake.NewClientset()
	client := NewClient(clientset)
	ctx := context.Background()

	if err := client.Create(ctx, testConfigMap("signalfx-agent", "default", "old")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := client.Replace(ctx, testConfigMap("signalfx-agent", "default", "new")); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	cm, err := clientset.CoreV1().ConfigMaps("default").Get(ctx, "signalfx-agent", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("config map not found after replace: %v", err)
	}
	if cm.Data["agent.yaml"] != "new" {
		t.Errorf("expected replaced content, got %q", cm.Data["agent.yaml"])
	}

	list, err := clientset.CoreV1().ConfigMaps("default").List(ctx, metav1.ListOptions{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list.Items) != 1 {
		t.Errorf("expected a single config map after replace, got %d", len(list.Items))
	}
}

func TestClientReplaceAbsent(t *testing.T) {
	client := NewClient(fake.NewClientset())

	if err := client.Replace(context.Background(), testConfigMap("signalfx-agent", "default", "fresh")); err != nil {
		t.Errorf("replace of an absent object should create it: %v", err)
	}
}

func TestClientExistsSurfacesAPIErrors(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("get", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("apiserver on fire")
	})
	client := NewClient(clientset)

	_, err := client.Exists(context.Background(), testConfigMap("signalfx-agent", "default", ""))
	if err == nil {
		t.Fatal("expected non-not-found API errors to surface")
	}
}

func TestClientUnsupportedKind(t *testing.T) {
	client := NewClient(fake.NewClientset())
	obj := Object{Kind: KindUnknown, Raw: &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "x"}}}

	if err := client.Create(context.Background(), obj); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind from create, got %v", err)
	}
	if err := client.Delete(context.Background(), obj); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind from delete, got %v", err)
	}
}
