package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/mattsolo1/grove-faulttree/pkg/source"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// fakeSource serves fixed collections, counts fetches per id and can hold or fail them.
type fakeSource struct {
	mu      sync.Mutex
	data    map[string][]*tree.Descriptor
	fail    map[string]error
	gates   map[string]chan struct{}
	started chan string
	calls   map[string]int
}

func newFakeSource(data map[string][]*tree.Descriptor) *fakeSource {
	return &fakeSource{
		data:    data,
		fail:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
		calls:   make(map[string]int),
	}
}

func (f *fakeSource) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	f.mu.Lock()
	f.calls[id]++
	gate := f.gates[id]
	f.mu.Unlock()

	if gate != nil {
		f.started <- id
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	descs, ok := f.data[id]
	if !ok {
		return nil, &source.FetchError{SourceID: id, Status: 404, Err: source.ErrNotFound}
	}
	return descs, nil
}

func (f *fakeSource) hold(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[id] = gate
	return gate
}

func (f *fakeSource) setFail(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, id)
		return
	}
	f.fail[id] = err
}

func (f *fakeSource) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

var errBoom = errors.New("boom")

func folder(title string, children ...*tree.Descriptor) *tree.Descriptor {
	if children == nil {
		children = []*tree.Descriptor{}
	}
	return &tree.Descriptor{Title: title, Type: tree.TypeFolder, Children: children}
}

func remote(title, src string) *tree.Descriptor {
	return &tree.Descriptor{Title: title, Type: tree.TypeFolder, Source: src}
}

func page(title string) *tree.Descriptor {
	return &tree.Descriptor{Title: title, Type: tree.TypePage}
}

func quietLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

// recorder captures renderer notifications.
type recorder struct {
	mu          sync.Mutex
	states      []tree.ExpansionState
	lists       int
	visibility  []Visibility
	activePaths [][]*tree.Node
}

func (r *recorder) OnNodeListChanged(parent *tree.Node, children []*tree.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
}

func (r *recorder) OnExpansionStateChanged(n *tree.Node, state tree.ExpansionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) OnVisibilitySetChanged(v Visibility, hasAnyMatch bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visibility = append(r.visibility, v)
}

func (r *recorder) OnActivePathChanged(chain []*tree.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activePaths = append(r.activePaths, chain)
}

func (r *recorder) stateLog() []tree.ExpansionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tree.ExpansionState(nil), r.states...)
}

func newTestNavigator(t *testing.T, src source.Source, opts ...Option) *Navigator {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	nav := New(src, opts...)
	if err := nav.Init(context.Background()); err != nil {
		t.Fatalf("init navigator: %v", err)
	}
	return nav
}

func findRoot(t *testing.T, nav *Navigator, title string) *tree.Node {
	t.Helper()
	for _, n := range nav.Roots() {
		if n.Title() == title {
			return n
		}
	}
	t.Fatalf("root %q not found", title)
	return nil
}
