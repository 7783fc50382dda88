package navigator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-faulttree/pkg/source"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

func newTestController(src source.Source, r Renderer) (*Controller, *tree.Store) {
	store := tree.NewStore()
	return NewController(store, source.NewCache(src), r, quietLogger()), store
}

func TestToggleInlineFolderNeverFetches(t *testing.T) {
	src := newFakeSource(nil)
	rec := &recorder{}
	ctl, _ := newTestController(src, rec)
	roots := ctl.SetRoots([]*tree.Descriptor{folder("Inline", page("a"), page("b"))})

	state := ctl.Toggle(context.Background(), roots[0])

	assert.Equal(t, tree.StateExpanded, state)
	assert.Len(t, roots[0].Children, 2)
	assert.Empty(t, src.calls)
	// Straight from Collapsed to Expanded, no Loading in between.
	assert.Equal(t, []tree.ExpansionState{tree.StateExpanded}, rec.stateLog())
}

func TestToggleEmptyFolderIsTerminal(t *testing.T) {
	src := newFakeSource(nil)
	ctl, _ := newTestController(src, nil)
	empty := &tree.Descriptor{Title: "Empty", Type: tree.TypeFolder}
	roots := ctl.SetRoots([]*tree.Descriptor{empty})

	assert.Equal(t, tree.StateExpanded, ctl.Toggle(context.Background(), roots[0]))
	assert.Empty(t, roots[0].Children)
	assert.Nil(t, roots[0].Err)
	assert.Empty(t, src.calls)
}

func TestToggleSourceFolderLoadsThroughCache(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{
		"a.json": {page("Leak"), page("Crack")},
	})
	rec := &recorder{}
	ctl, store := newTestController(src, rec)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("FTA", "a.json")})
	ctx := context.Background()
	n := roots[0]

	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, n))
	require.Len(t, n.Children, 2)
	assert.Equal(t, []tree.ExpansionState{tree.StateLoading, tree.StateExpanded}, rec.stateLog())
	first := []*tree.Descriptor{n.Children[0].Descriptor, n.Children[1].Descriptor}
	firstIDs := []tree.NodeID{n.Children[0].ID, n.Children[1].ID}

	require.Equal(t, tree.StateCollapsed, ctl.Toggle(ctx, n))
	assert.Empty(t, n.Children)
	assert.Equal(t, 1, store.Len())

	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, n))
	assert.Equal(t, 1, src.callCount("a.json"))
	second := []*tree.Descriptor{n.Children[0].Descriptor, n.Children[1].Descriptor}
	assert.Equal(t, first, second)
	// Nodes are rebuilt, not reused.
	assert.NotEqual(t, firstIDs[0], n.Children[0].ID)
	assert.Equal(t, n.Level+1, n.Children[0].Level)
}

func TestToggleFailureThenRetry(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{
		"a.json": {page("Leak")},
	})
	src.setFail("a.json", &source.FetchError{SourceID: "a.json", Status: 503, Err: errBoom})
	rec := &recorder{}
	ctl, _ := newTestController(src, rec)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("FTA", "a.json"), folder("Other", page("x"))})
	ctx := context.Background()
	n := roots[0]

	assert.Equal(t, tree.StateLoadError, ctl.Toggle(ctx, n))
	assert.Empty(t, n.Children)
	assert.ErrorIs(t, n.Err, errBoom)

	// Other folders are unaffected.
	assert.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, roots[1]))

	src.setFail("a.json", nil)
	assert.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, n))
	assert.Nil(t, n.Err)
	assert.Len(t, n.Children, 1)
	assert.Equal(t, 2, src.callCount("a.json"))

	states := rec.stateLog()
	assert.Equal(t, []tree.ExpansionState{
		tree.StateLoading, tree.StateLoadError,
		tree.StateExpanded,
		tree.StateLoading, tree.StateExpanded,
	}, states)
}

func TestToggleRetryEntersLoadingAgain(t *testing.T) {
	src := newFakeSource(nil)
	src.setFail("a.json", errBoom)
	ctl, _ := newTestController(src, nil)
	n := ctl.SetRoots([]*tree.Descriptor{remote("FTA", "a.json")})[0]
	ctx := context.Background()

	require.Equal(t, tree.StateLoadError, ctl.Toggle(ctx, n))

	gate := src.hold("a.json")
	done := make(chan tree.ExpansionState)
	go func() { done <- ctl.Toggle(ctx, n) }()
	<-src.started

	assert.Equal(t, tree.StateLoading, ctl.State(n))
	close(gate)
	assert.Equal(t, tree.StateLoadError, <-done)
	assert.Equal(t, 2, src.callCount("a.json"))
}

func TestToggleWhileLoadingIsNoop(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"a.json": {page("Leak")}})
	gate := src.hold("a.json")
	ctl, _ := newTestController(src, nil)
	n := ctl.SetRoots([]*tree.Descriptor{remote("FTA", "a.json")})[0]
	ctx := context.Background()

	done := make(chan tree.ExpansionState)
	go func() { done <- ctl.Toggle(ctx, n) }()
	<-src.started

	assert.Equal(t, tree.StateLoading, ctl.Toggle(ctx, n))
	assert.Equal(t, tree.StateLoading, ctl.Collapse(n))
	close(gate)

	assert.Equal(t, tree.StateExpanded, <-done)
	assert.Equal(t, 1, src.callCount("a.json"))
}

func TestToggleDiscardsStaleResult(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"b.json": {page("Late")}})
	gate := src.hold("b.json")
	ctl, store := newTestController(src, nil)
	a := ctl.SetRoots([]*tree.Descriptor{folder("A", remote("B", "b.json"))})[0]
	ctx := context.Background()

	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, a))
	b := a.Children[0]

	done := make(chan tree.ExpansionState)
	go func() { done <- ctl.Toggle(ctx, b) }()
	<-src.started

	// Collapsing the parent detaches the loading folder.
	require.Equal(t, tree.StateCollapsed, ctl.Toggle(ctx, a))
	close(gate)
	<-done

	assert.True(t, b.Detached())
	assert.Empty(t, b.Children)
	assert.Equal(t, 1, store.Len())

	// Re-expanding builds a fresh B; its fetch is already cached.
	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, a))
	fresh := a.Children[0]
	assert.NotSame(t, b, fresh)
	assert.Equal(t, tree.StateCollapsed, fresh.State)
	assert.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, fresh))
	assert.Equal(t, 1, src.callCount("b.json"))
}

func TestTogglePageIsNoop(t *testing.T) {
	src := newFakeSource(nil)
	ctl, _ := newTestController(src, nil)
	p := ctl.SetRoots([]*tree.Descriptor{page("Leak")})[0]

	assert.Equal(t, tree.StateNone, ctl.Toggle(context.Background(), p))
	assert.Equal(t, tree.StateNone, ctl.Expand(context.Background(), p))
	assert.Equal(t, tree.StateNone, ctl.Collapse(p))
}

func TestSharedSourceFetchedOnce(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"equip.json": {page("Motor"), page("Spindle")}})
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{
		remote("工装/设备", "equip.json"),
		remote("设备", "equip.json"),
	})
	ctx := context.Background()

	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, roots[0]))
	require.Equal(t, tree.StateExpanded, ctl.Toggle(ctx, roots[1]))

	assert.Equal(t, 1, src.callCount("equip.json"))
	// Rendered independently per folder.
	assert.NotSame(t, roots[0].Children[0], roots[1].Children[0])
	assert.Same(t, roots[0].Children[0].Descriptor, roots[1].Children[0].Descriptor)
}

func TestConcurrentExpansionOfSharedSource(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"equip.json": {page("Motor")}})
	gate := src.hold("equip.json")
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{
		remote("工装/设备", "equip.json"),
		remote("设备", "equip.json"),
	})
	ctx := context.Background()

	done := make(chan tree.ExpansionState, 2)
	go func() { done <- ctl.Toggle(ctx, roots[0]) }()
	<-src.started
	go func() { done <- ctl.Toggle(ctx, roots[1]) }()
	close(gate)

	assert.Equal(t, tree.StateExpanded, <-done)
	assert.Equal(t, tree.StateExpanded, <-done)
	assert.Equal(t, 1, src.callCount("equip.json"))
}

func TestExpandAll(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{
		"a.json":      {remote("Nested", "nested.json"), page("Leak")},
		"nested.json": {page("Deep")},
		"loop.json":   {remote("Again", "loop.json")},
	})
	src.setFail("bad.json", errBoom)
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{
		remote("A", "a.json"),
		remote("Bad", "bad.json"),
		remote("Loop", "loop.json"),
		folder("Inline", page("x")),
	})

	failures, err := ctl.ExpandAll(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "Bad", failures[0].Node.Title())
	assert.ErrorIs(t, failures[0].Err, errBoom)
	assert.ErrorIs(t, JoinFailures(failures), errBoom)

	nested := roots[0].Children[0]
	assert.Equal(t, tree.StateExpanded, nested.State)
	assert.Equal(t, "Deep", nested.Children[0].Title())
	// The cyclic reference is left collapsed.
	again := roots[2].Children[0]
	assert.Equal(t, tree.StateCollapsed, again.State)
	assert.Equal(t, tree.StateExpanded, roots[3].State)
}

func TestExpandAllDepthLimit(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{
		"a.json": {remote("Nested", "nested.json")},
	})
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("A", "a.json")})

	failures, err := ctl.ExpandAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, tree.StateExpanded, roots[0].State)
	assert.Equal(t, tree.StateCollapsed, roots[0].Children[0].State)
	assert.Zero(t, src.callCount("nested.json"))
}

func TestSettleWaitsForLoadInProgress(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"a.json": {page("Leak")}})
	gate := src.hold("a.json")
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("A", "a.json")})
	ctx := context.Background()

	go ctl.Toggle(ctx, roots[0])
	<-src.started
	require.Equal(t, tree.StateLoading, ctl.Expand(ctx, roots[0]))

	settled := make(chan tree.ExpansionState, 1)
	go func() {
		state, err := ctl.Settle(ctx, roots[0])
		assert.NoError(t, err)
		settled <- state
	}()
	assert.Never(t, func() bool { return len(settled) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	close(gate)
	assert.Equal(t, tree.StateExpanded, <-settled)
	assert.Len(t, ctl.Children(roots[0]), 1)
	assert.Equal(t, 1, src.callCount("a.json"))
}

func TestSettleReportsFailureWithoutRetrying(t *testing.T) {
	src := newFakeSource(nil)
	src.setFail("a.json", errBoom)
	gate := src.hold("a.json")
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("A", "a.json")})
	ctx := context.Background()

	go ctl.Toggle(ctx, roots[0])
	<-src.started

	settled := make(chan tree.ExpansionState, 1)
	go func() {
		state, err := ctl.Settle(ctx, roots[0])
		assert.NoError(t, err)
		settled <- state
	}()
	assert.Never(t, func() bool { return len(settled) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	close(gate)

	assert.Equal(t, tree.StateLoadError, <-settled)
	assert.ErrorIs(t, ctl.Err(roots[0]), errBoom)
	assert.Equal(t, 1, src.callCount("a.json"))
}

func TestSettleHonorsContext(t *testing.T) {
	src := newFakeSource(map[string][]*tree.Descriptor{"a.json": {page("Leak")}})
	gate := src.hold("a.json")
	defer close(gate)
	ctl, _ := newTestController(src, nil)
	roots := ctl.SetRoots([]*tree.Descriptor{remote("A", "a.json")})

	go ctl.Toggle(context.Background(), roots[0])
	<-src.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := ctl.Settle(ctx, roots[0])
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, tree.StateLoading, state)
}
