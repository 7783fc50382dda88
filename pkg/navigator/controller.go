package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-faulttree/pkg/source"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// expandAllConcurrency bounds sibling fetches during ExpandAll.
const expandAllConcurrency = 4

// Controller drives the expansion state machine of folder nodes:
//
//	Collapsed -> Loading -> Expanded
//	Expanded  -> Collapsed
//	Loading   -> LoadError
//	LoadError -> Loading
//
// Fetches run without the controller lock held, so other nodes stay interactive while a
// folder is Loading. A fetch result is applied only if the node is still live and in the
// generation it was issued from.
type Controller struct {
	mu       sync.RWMutex
	store    *tree.Store
	source   source.Source
	renderer Renderer
	log      *logrus.Entry

	// settled holds a channel per Loading node, closed when its fetch settles.
	settled map[tree.NodeID]chan struct{}
}

// NewController creates a controller over store that loads folder sources from src.
func NewController(store *tree.Store, src source.Source, renderer Renderer, log *logrus.Entry) *Controller {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if log == nil {
		log = defaultLogger()
	}
	return &Controller{
		store:    store,
		source:   src,
		renderer: renderer,
		log:      log,
		settled:  make(map[tree.NodeID]chan struct{}),
	}
}

// events collects renderer notifications so they can be delivered after unlocking.
type events []func(Renderer)

func (e *events) nodeList(parent *tree.Node, children []*tree.Node) {
	*e = append(*e, func(r Renderer) { r.OnNodeListChanged(parent, children) })
}

func (e *events) state(n *tree.Node, s tree.ExpansionState) {
	*e = append(*e, func(r Renderer) { r.OnExpansionStateChanged(n, s) })
}

func (c *Controller) fire(e events) {
	for _, fn := range e {
		fn(c.renderer)
	}
}

// View runs fn with the tree locked against transitions.
func (c *Controller) View(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// SetRoots replaces the root list.
func (c *Controller) SetRoots(descs []*tree.Descriptor) []*tree.Node {
	var ev events
	c.mu.Lock()
	roots := c.store.BuildChildren(nil, descs)
	ev.nodeList(nil, roots)
	c.mu.Unlock()
	c.fire(ev)
	return roots
}

// State returns n's expansion state.
func (c *Controller) State(n *tree.Node) tree.ExpansionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return n.State
}

// Err returns the error that put n into LoadError, if any.
func (c *Controller) Err(n *tree.Node) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return n.Err
}

// Children returns a copy of n's materialized children.
func (c *Controller) Children(n *tree.Node) []*tree.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*tree.Node(nil), n.Children...)
}

// Toggle advances a folder's state machine: an expanded folder collapses, a collapsed or
// failed folder starts loading, and a loading folder is left alone. Pages are not
// targets and report StateNone. The returned state is the one the node is in when
// Toggle returns; for a fetched folder that is after the fetch settled.
func (c *Controller) Toggle(ctx context.Context, n *tree.Node) tree.ExpansionState {
	c.mu.Lock()
	switch n.State {
	case tree.StateExpanded:
		var ev events
		c.collapseLocked(n, &ev)
		c.mu.Unlock()
		c.fire(ev)
		return tree.StateCollapsed
	case tree.StateCollapsed, tree.StateLoadError:
		return c.load(ctx, n)
	default:
		state := n.State
		c.mu.Unlock()
		return state
	}
}

// Expand opens a folder unless it is already expanded or loading.
func (c *Controller) Expand(ctx context.Context, n *tree.Node) tree.ExpansionState {
	c.mu.Lock()
	switch n.State {
	case tree.StateCollapsed, tree.StateLoadError:
		return c.load(ctx, n)
	default:
		state := n.State
		c.mu.Unlock()
		return state
	}
}

// Settle expands n like Expand, but when another caller is already loading n it waits for
// that load instead of returning StateLoading. A folder that failed under the other
// caller is reported as LoadError, not retried.
func (c *Controller) Settle(ctx context.Context, n *tree.Node) (tree.ExpansionState, error) {
	state := c.Expand(ctx, n)
	if state != tree.StateLoading {
		return state, nil
	}

	c.mu.RLock()
	done := c.settled[n.ID]
	c.mu.RUnlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return tree.StateLoading, ctx.Err()
		}
	}
	return c.State(n), nil
}

// Collapse closes an expanded folder; any other state is left as is.
func (c *Controller) Collapse(n *tree.Node) tree.ExpansionState {
	var ev events
	c.mu.Lock()
	if n.State == tree.StateExpanded {
		c.collapseLocked(n, &ev)
	}
	state := n.State
	c.mu.Unlock()
	c.fire(ev)
	return state
}

func (c *Controller) collapseLocked(n *tree.Node, ev *events) {
	c.store.Detach(n)
	n.SetState(tree.StateCollapsed)
	ev.nodeList(n, nil)
	ev.state(n, tree.StateCollapsed)
	c.log.WithFields(logrus.Fields{"node": n.Path(), "title": n.Title()}).Debug("collapsed folder")
}

// load must be called with c.mu held; it releases the lock.
func (c *Controller) load(ctx context.Context, n *tree.Node) tree.ExpansionState {
	var ev events
	if n.Detached() {
		state := n.State
		c.mu.Unlock()
		return state
	}

	n.Err = nil
	d := n.Descriptor
	if d.HasInlineChildren() || d.Source == "" {
		// Inline children and empty folders resolve without a fetch, straight to Expanded.
		children := c.store.BuildChildren(n, d.Children)
		n.SetState(tree.StateExpanded)
		ev.nodeList(n, children)
		ev.state(n, tree.StateExpanded)
		c.mu.Unlock()
		c.fire(ev)
		return tree.StateExpanded
	}

	n.SetState(tree.StateLoading)
	gen := n.Generation()
	done := make(chan struct{})
	c.settled[n.ID] = done
	ev.state(n, tree.StateLoading)
	c.mu.Unlock()
	c.fire(ev)
	ev = nil

	log := c.log.WithFields(logrus.Fields{"node": n.Path(), "source_id": d.Source})
	descs, err := c.source.Fetch(ctx, d.Source)

	c.mu.Lock()
	if c.settled[n.ID] == done {
		delete(c.settled, n.ID)
	}
	defer close(done)
	if n.Detached() || n.State != tree.StateLoading || n.Generation() != gen {
		state := n.State
		c.mu.Unlock()
		log.WithField("state", state).Debug("discarding stale fetch result")
		return state
	}
	if err != nil {
		n.Err = err
		n.SetState(tree.StateLoadError)
		ev.state(n, tree.StateLoadError)
		log.WithError(err).Warn("failed to load folder")
	} else {
		children := c.store.BuildChildren(n, descs)
		n.SetState(tree.StateExpanded)
		ev.nodeList(n, children)
		ev.state(n, tree.StateExpanded)
		log.WithField("children", len(children)).Debug("expanded folder")
	}
	state := n.State
	c.mu.Unlock()
	c.fire(ev)
	return state
}

// LoadFailure records a folder ExpandAll could not open.
type LoadFailure struct {
	Node *tree.Node
	Err  error
}

// ExpandAll materializes every folder down to maxDepth levels below the root list
// (maxDepth < 0 means no limit). Siblings load concurrently. Folders whose source already
// appears on their ancestor chain are left collapsed to stop reference cycles. Failed
// folders stay in LoadError and are reported; they do not stop the rest of the walk.
func (c *Controller) ExpandAll(ctx context.Context, maxDepth int) ([]LoadFailure, error) {
	var (
		mu       sync.Mutex
		failures []LoadFailure
	)

	frontier := c.store.Roots()
	for depth := 0; len(frontier) > 0 && (maxDepth < 0 || depth < maxDepth); depth++ {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(expandAllConcurrency)
		var next []*tree.Node
		for _, n := range frontier {
			if !n.IsFolder() {
				continue
			}
			if src := n.Descriptor.Source; src != "" && sourceOnAncestors(n, src) {
				c.log.WithFields(logrus.Fields{"node": n.Path(), "source_id": src}).Warn("skipping cyclic source reference")
				continue
			}
			g.Go(func() error {
				state, err := c.Settle(gctx, n)
				if err != nil {
					return err
				}
				if state == tree.StateLoadError {
					mu.Lock()
					failures = append(failures, LoadFailure{Node: n, Err: c.Err(n)})
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return failures, err
		}

		c.View(func() {
			for _, n := range frontier {
				if n.State == tree.StateExpanded {
					next = append(next, n.Children...)
				}
			}
		})
		frontier = next
	}
	return failures, nil
}

func sourceOnAncestors(n *tree.Node, src string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Descriptor.Source == src {
			return true
		}
	}
	return false
}

// JoinFailures folds ExpandAll failures into one error, or nil.
func JoinFailures(failures []LoadFailure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Node.Title(), f.Err))
	}
	return errors.Join(errs...)
}
