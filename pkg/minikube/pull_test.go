package minikube

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/signalfx/agent-test-harness/pkg/errors"
)

const agentImageName = "quay.io/signalfx/signalfx-agent"

func pullTestCluster(engine *fakeEngine) *Cluster {
	return &Cluster{Name: DefaultContainerName, nested: engine}
}

func TestPullAgentImageByID(t *testing.T) {
	engine := newFakeEngine()
	engine.setImage("sha256:abc123")
	cluster := pullTestCluster(engine)

	got, err := cluster.PullAgentImage(context.Background(), agentImageName, "5.1.0", "sha256:abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sha256:abc123" {
		t.Errorf("image = %q, want the id", got)
	}
	if len(engine.pulls) != 0 {
		t.Errorf("pulls = %v, want none", engine.pulls)
	}
}

func TestPullAgentImageByRef(t *testing.T) {
	engine := newFakeEngine()
	engine.setImage(agentImageName + ":5.1.0")
	cluster := pullTestCluster(engine)

	// The id misses but the tagged reference is present locally.
	got, err := cluster.PullAgentImage(context.Background(), agentImageName, "5.1.0", "sha256:gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != agentImageName+":5.1.0" {
		t.Errorf("image = %q, want the tagged reference", got)
	}
	if len(engine.pulls) != 0 {
		t.Errorf("pulls = %v, want none", engine.pulls)
	}
}

func TestPullAgentImagePulls(t *testing.T) {
	engine := newFakeEngine()
	cluster := pullTestCluster(engine)

	got, err := cluster.PullAgentImage(context.Background(), agentImageName, "latest", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != agentImageName+":latest" {
		t.Errorf("image = %q, want the tagged reference", got)
	}
	if len(engine.pulls) != 1 || engine.pulls[0] != agentImageName+":latest" {
		t.Errorf("pulls = %v, want the tagged reference pulled", engine.pulls)
	}
}

func TestPullAgentImagePullFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.pullErr = fmt.Errorf("registry unreachable")
	cluster := pullTestCluster(engine)

	_, err := cluster.PullAgentImage(context.Background(), agentImageName, "latest", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.IsCode(err, errors.ErrCodeTransient) {
		t.Errorf("error code = %v, want transient", err)
	}
	if !strings.Contains(err.Error(), "failed to pull "+agentImageName+":latest") {
		t.Errorf("error = %v, want naming the image", err)
	}
}
