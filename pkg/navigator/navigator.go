// Package navigator implements lazy-loaded navigation over a fault tree: the expansion
// state machine, keyword filtering of the loaded tree, and breadcrumb and note
// resolution for the active node.
package navigator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-faulttree/pkg/source"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Navigator ties a source, its session cache, the node store and the controller together
// and tracks the active node and the current filter.
type Navigator struct {
	cache     *source.Cache
	store     *tree.Store
	ctl       *Controller
	renderer  Renderer
	log       *logrus.Entry
	rootID    string
	separator string

	mu           sync.Mutex
	active       *tree.Node
	keyword      string
	visibility   Visibility
	usedFallback bool
	rootErr      error
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithRenderer sets the renderer notified of state changes.
func WithRenderer(r Renderer) Option {
	return func(nav *Navigator) { nav.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(nav *Navigator) { nav.log = log }
}

// WithRootSource overrides the source id of the root collection.
func WithRootSource(id string) Option {
	return func(nav *Navigator) { nav.rootID = id }
}

// WithSeparator overrides the breadcrumb separator.
func WithSeparator(sep string) Option {
	return func(nav *Navigator) { nav.separator = sep }
}

func defaultLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(logger)
}

// New creates a navigator reading from src. Unless src already is a *source.Cache it is
// wrapped in one.
func New(src source.Source, opts ...Option) *Navigator {
	nav := &Navigator{
		renderer:  NopRenderer{},
		rootID:    source.RootID,
		separator: DefaultSeparator,
	}
	for _, opt := range opts {
		opt(nav)
	}
	if nav.log == nil {
		nav.log = defaultLogger()
	}
	if c, ok := src.(*source.Cache); ok {
		nav.cache = c
	} else {
		nav.cache = source.NewCache(src)
	}
	nav.store = tree.NewStore()
	nav.ctl = NewController(nav.store, nav.cache, nav.renderer, nav.log)
	nav.visibility = Visibility{Cleared: true}
	return nav
}

// Init loads the root collection. When it cannot be loaded the built-in fallback
// collection is used instead, so Init only fails on a cancelled context.
func (nav *Navigator) Init(ctx context.Context) error {
	descs, err := nav.cache.Fetch(ctx, nav.rootID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("load root collection: %w", ctxErr)
		}
		nav.log.WithError(err).WithField("source_id", nav.rootID).Warn("root collection unavailable, using built-in fallback")
		descs = source.FallbackRoot()
	}

	nav.mu.Lock()
	nav.usedFallback = err != nil
	nav.rootErr = err
	nav.active = nil
	nav.mu.Unlock()

	nav.ctl.SetRoots(descs)
	nav.RefreshFilter()
	return nil
}

// UsedFallback reports whether Init fell back to the built-in root collection, and why.
func (nav *Navigator) UsedFallback() (bool, error) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.usedFallback, nav.rootErr
}

// Store returns the node store.
func (nav *Navigator) Store() *tree.Store { return nav.store }

// Controller returns the expansion controller.
func (nav *Navigator) Controller() *Controller { return nav.ctl }

// Cache returns the session cache.
func (nav *Navigator) Cache() *source.Cache { return nav.cache }

// Separator returns the breadcrumb separator.
func (nav *Navigator) Separator() string { return nav.separator }

// Roots returns the root list.
func (nav *Navigator) Roots() []*tree.Node { return nav.store.Roots() }

// Selection describes the active node.
type Selection struct {
	Node       *tree.Node
	Chain      []*tree.Node
	Breadcrumb string
	Notes      []string
	State      tree.ExpansionState
	Err        error // set while a folder is in LoadError
}

func (nav *Navigator) selectionFor(n *tree.Node) Selection {
	if n == nil {
		return Selection{}
	}
	chain := AncestorChain(n)
	return Selection{
		Node:       n,
		Chain:      chain,
		Breadcrumb: Breadcrumb(chain, nav.separator),
		Notes:      InheritedNotes(chain),
		State:      nav.ctl.State(n),
		Err:        nav.ctl.Err(n),
	}
}

// Activate makes n the active node. A folder is also toggled, as a click would do.
func (nav *Navigator) Activate(ctx context.Context, n *tree.Node) Selection {
	if n == nil {
		return Selection{}
	}
	nav.mu.Lock()
	nav.active = n
	nav.mu.Unlock()

	nav.renderer.OnActivePathChanged(AncestorChain(n))

	if n.IsFolder() {
		nav.ctl.Toggle(ctx, n)
		nav.RefreshFilter()
	}
	return nav.selectionFor(n)
}

// Active returns the active node, or nil.
func (nav *Navigator) Active() *tree.Node {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.active
}

// Selection describes the active node.
func (nav *Navigator) Selection() Selection {
	return nav.selectionFor(nav.Active())
}

// Resolve walks titles from the root list, expanding folders on the way, and returns the
// node the last title names.
func (nav *Navigator) Resolve(ctx context.Context, titles []string) (*tree.Node, error) {
	level := nav.store.Roots()
	var found *tree.Node
	for i, title := range titles {
		found = nil
		for _, n := range level {
			if n.Title() == title {
				found = n
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
		}
		if i == len(titles)-1 {
			break
		}
		if !found.IsFolder() {
			return nil, fmt.Errorf("%w: %q", ErrNotFolder, title)
		}
		state, err := nav.ctl.Settle(ctx, found)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrLoadFailed, title, err)
		}
		if state != tree.StateExpanded {
			if loadErr := nav.ctl.Err(found); loadErr != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrLoadFailed, title, loadErr)
			}
			return nil, fmt.Errorf("%w: %q is %s", ErrLoadFailed, title, state)
		}
		level = nav.ctl.Children(found)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	nav.RefreshFilter()
	return found, nil
}

// Filter applies keyword to the loaded tree and notifies the renderer.
func (nav *Navigator) Filter(keyword string) Visibility {
	nav.mu.Lock()
	nav.keyword = keyword
	nav.mu.Unlock()
	return nav.RefreshFilter()
}

// ClearFilter turns filtering off; every loaded node shows in its own expansion state.
func (nav *Navigator) ClearFilter() Visibility {
	return nav.Filter("")
}

// RefreshFilter recomputes the current filter, e.g. after folders were expanded.
func (nav *Navigator) RefreshFilter() Visibility {
	nav.mu.Lock()
	keyword := nav.keyword
	nav.mu.Unlock()

	var v Visibility
	nav.ctl.View(func() {
		v = ComputeVisibility(nav.store, keyword)
	})

	nav.mu.Lock()
	nav.visibility = v
	nav.mu.Unlock()

	nav.renderer.OnVisibilitySetChanged(v, v.HasMatch)
	return v
}

// Visibility returns the last computed filter result.
func (nav *Navigator) Visibility() Visibility {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.visibility
}

// Keyword returns the current filter keyword.
func (nav *Navigator) Keyword() string {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.keyword
}

// Row is one line of the displayed tree.
type Row struct {
	Node   *tree.Node
	Depth  int
	State  tree.ExpansionState
	Open   bool // expanded, or forced open by the filter
	Match  bool
	Active bool
	Err    error
}

// Rows flattens the displayed tree in pre-order, honoring the current filter.
func (nav *Navigator) Rows() []Row {
	nav.mu.Lock()
	v := nav.visibility
	active := nav.active
	nav.mu.Unlock()

	var rows []Row
	nav.ctl.View(func() {
		nav.store.Walk(func(n *tree.Node) bool {
			if !v.Cleared && !v.Contains(n) {
				return false
			}
			rows = append(rows, Row{
				Node:   n,
				Depth:  n.Level,
				State:  n.State,
				Open:   n.State == tree.StateExpanded || (!v.Cleared && v.IsAutoExpanded(n)),
				Match:  !v.Cleared && v.IsMatch(n),
				Active: n == active,
				Err:    n.Err,
			})
			return true
		})
	})
	return rows
}
