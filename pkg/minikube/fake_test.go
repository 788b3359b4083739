package minikube

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalfx/agent-test-harness/pkg/docker"
)

type fakeRun struct {
	image string
	opts  docker.RunOptions
}

type fakeBuild struct {
	dir  string
	opts docker.BuildOptions
}

// fakeEngine is an in-memory docker.Engine. Tests seed state through the
// set helpers and assert on the recorded calls. Everything is guarded by
// mu so seeded state can change while a wait loop polls.
type fakeEngine struct {
	mu sync.Mutex

	running map[string]string
	images  map[string]bool
	files   map[string][]byte
	execs   map[string]docker.ExecResult

	removed  []string
	ran      []fakeRun
	detached [][]string
	builds   []fakeBuild
	pulls    []string

	// Consumed one per call; a nil entry means that call succeeds.
	buildErrs []error
	runErrs   []error

	pullErr error
	runIP   string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		running: map[string]string{},
		images:  map[string]bool{},
		files:   map[string][]byte{},
		execs:   map[string]docker.ExecResult{},
		runIP:   "127.0.0.1",
	}
}

func (f *fakeEngine) setRunning(name, ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[name] = ip
}

func (f *fakeEngine) setImage(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[ref] = true
}

func (f *fakeEngine) setFile(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

func (f *fakeEngine) setExec(cmd string, res docker.ExecResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs[cmd] = res
}

func (f *fakeEngine) ContainerRunning(_ context.Context, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ip, ok := f.running[name]
	return ip, ok
}

func (f *fakeEngine) RemoveContainer(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	delete(f.running, name)
	return nil
}

func (f *fakeEngine) RunContainer(_ context.Context, image string, opts docker.RunOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, fakeRun{image: image, opts: opts})
	if len(f.runErrs) > 0 {
		err := f.runErrs[0]
		f.runErrs = f.runErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.running[opts.Name] = f.runIP
	return "cid-" + opts.Name, nil
}

func (f *fakeEngine) Exec(_ context.Context, _ string, cmd []string) (docker.ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.execs[strings.Join(cmd, " ")]; ok {
		return res, nil
	}
	return docker.ExecResult{ExitCode: 1}, nil
}

func (f *fakeEngine) ExecDetached(_ context.Context, _ string, cmd []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = append(f.detached, cmd)
	return nil
}

func (f *fakeEngine) FileContent(_ context.Context, name, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file in %s: %s", name, path)
	}
	return content, nil
}

func (f *fakeEngine) HasImage(_ context.Context, ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[ref]
}

func (f *fakeEngine) PullImage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, ref)
	if f.pullErr != nil {
		return f.pullErr
	}
	f.images[ref] = true
	return nil
}

func (f *fakeEngine) BuildImage(_ context.Context, dir string, opts docker.BuildOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds = append(f.builds, fakeBuild{dir: dir, opts: opts})
	if len(f.buildErrs) > 0 {
		err := f.buildErrs[0]
		f.buildErrs = f.buildErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.images[opts.Tag] = true
	return opts.Tag, nil
}

func (f *fakeEngine) Close() error {
	return nil
}
