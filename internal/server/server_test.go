package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/source"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

func newTestServer(t *testing.T) (*httptest.Server, *navigator.Navigator) {
	t.Helper()
	data := map[string][]*tree.Descriptor{
		source.RootID: {
			{Title: "工装/设备", Type: tree.TypeFolder, Source: "equip.json", Notes: "lock out first"},
			{Title: "Broken", Type: tree.TypeFolder, Source: "broken.json"},
		},
		"equip.json": {
			{Title: "Spindle Noise", Type: tree.TypePage, RootCause: "bearing wear", Notes: "check torque"},
		},
	}
	src := source.Func(func(ctx context.Context, id string) ([]*tree.Descriptor, error) {
		if id == "broken.json" {
			return nil, &source.ParseError{SourceID: id, Err: assert.AnError}
		}
		descs, ok := data[id]
		if !ok {
			return nil, &source.FetchError{SourceID: id, Status: http.StatusNotFound, Err: source.ErrNotFound}
		}
		return descs, nil
	})

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	nav := navigator.New(src, navigator.WithLogger(log))
	require.NoError(t, nav.Init(context.Background()))

	ts := httptest.NewServer(New(nav, log))
	t.Cleanup(ts.Close)
	return ts, nav
}

func getJSON(t *testing.T, u string, v any) int {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCollection(t *testing.T) {
	ts, nav := newTestServer(t)

	var descs []*tree.Descriptor
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/data/equip.json", &descs))
	require.Len(t, descs, 1)
	assert.Equal(t, "bearing wear", descs[0].RootCause)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/data/missing.json", &errBody))
	assert.Contains(t, errBody["error"], "missing.json")
	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, ts.URL+"/data/broken.json", &errBody))

	var stats source.CacheStats
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/stats", &stats))
	assert.Equal(t, nav.Cache().Stats(), stats)
	assert.Equal(t, 2, stats.Entries)
}

func TestCollectionReadableByHTTPSource(t *testing.T) {
	ts, _ := newTestServer(t)

	src := source.NewHTTPSource(ts.URL+"/data", 0)
	descs, err := src.Fetch(context.Background(), "equip.json")
	require.NoError(t, err)
	assert.Equal(t, "Spindle Noise", descs[0].Title)

	_, err = src.Fetch(context.Background(), "missing.json")
	assert.True(t, source.IsNotFound(err))
}

func TestNode(t *testing.T) {
	ts, _ := newTestServer(t)

	q := url.Values{"t": {"工装/设备", "Spindle Noise"}}
	var page nodeResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/node?"+q.Encode(), &page))
	assert.Equal(t, "工装/设备 > Spindle Noise", page.Breadcrumb)
	assert.Equal(t, []string{"lock out first", "check torque"}, page.Notes)
	require.NotEmpty(t, page.Page)
	assert.Equal(t, []string{"bearing wear"}, page.Page[0].Lines)

	var folder nodeResponse
	q = url.Values{"t": {"工装/设备"}}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/node?"+q.Encode(), &folder))
	assert.Equal(t, "expanded", folder.State)
	assert.Equal(t, []string{"Spindle Noise"}, folder.Children)

	var errBody map[string]string
	q = url.Values{"t": {"Nope"}}
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/node?"+q.Encode(), &errBody))
	q = url.Values{"t": {"Broken", "x"}}
	assert.Equal(t, http.StatusBadGateway, getJSON(t, ts.URL+"/api/node?"+q.Encode(), &errBody))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/node", &errBody))
}

func TestSearch(t *testing.T) {
	ts, nav := newTestServer(t)

	var resp searchResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/search?q=spindle", &resp))
	assert.Empty(t, resp.Matches)

	_, err := nav.Resolve(context.Background(), []string{"工装/设备", "Spindle Noise"})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/search?q=SPINDLE", &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "工装/设备 > Spindle Noise", resp.Matches[0].Breadcrumb)
	assert.Empty(t, nav.Keyword())
}
