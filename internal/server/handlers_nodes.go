package server

import (
	"errors"
	"net/http"

	"github.com/mattsolo1/grove-faulttree/internal/render"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

type nodeResponse struct {
	Title      string           `json:"title"`
	Type       tree.NodeType    `json:"type"`
	State      string           `json:"state,omitempty"`
	Breadcrumb string           `json:"breadcrumb"`
	Notes      []string         `json:"notes,omitempty"`
	Children   []string         `json:"children,omitempty"`
	Page       []render.Section `json:"page,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func (s *Server) describe(n *tree.Node) nodeResponse {
	chain := navigator.AncestorChain(n)
	resp := nodeResponse{
		Title:      n.Title(),
		Type:       n.Descriptor.Type,
		Breadcrumb: navigator.Breadcrumb(chain, s.nav.Separator()),
		Notes:      navigator.InheritedNotes(chain),
	}
	if n.IsPage() {
		resp.Page = render.Page(n.Descriptor)
		return resp
	}
	ctl := s.nav.Controller()
	resp.State = ctl.State(n).String()
	if err := ctl.Err(n); err != nil {
		resp.Error = err.Error()
	}
	for _, c := range ctl.Children(n) {
		resp.Children = append(resp.Children, c.Title())
	}
	return resp
}

// handleNode resolves a title path given as repeated t parameters, expanding folders on
// the way, and describes the node it names. A folder is expanded too.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	titles := r.URL.Query()["t"]
	if len(titles) == 0 {
		jsonError(w, "at least one t parameter is required", http.StatusBadRequest)
		return
	}

	n, err := s.nav.Resolve(r.Context(), titles)
	if err != nil {
		code := http.StatusNotFound
		if errors.Is(err, navigator.ErrLoadFailed) {
			code = http.StatusBadGateway
		}
		jsonError(w, err.Error(), code)
		return
	}
	if n.IsFolder() {
		// A failed load is reported in the body.
		_, _ = s.nav.Controller().Settle(r.Context(), n)
	}
	writeJSON(w, http.StatusOK, s.describe(n))
}

type searchResponse struct {
	Keyword string         `json:"keyword"`
	Matches []nodeResponse `json:"matches"`
}

// handleSearch filters the tree loaded so far. It does not touch the navigator's own
// filter.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q parameter is required", http.StatusBadRequest)
		return
	}

	var matched []*tree.Node
	s.nav.Controller().View(func() {
		v := navigator.ComputeVisibility(s.nav.Store(), q)
		s.nav.Store().Walk(func(n *tree.Node) bool {
			if v.IsMatch(n) {
				matched = append(matched, n)
			}
			return true
		})
	})

	resp := searchResponse{Keyword: q, Matches: []nodeResponse{}}
	for _, n := range matched {
		chain := navigator.AncestorChain(n)
		resp.Matches = append(resp.Matches, nodeResponse{
			Title:      n.Title(),
			Type:       n.Descriptor.Type,
			Breadcrumb: navigator.Breadcrumb(chain, s.nav.Separator()),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
