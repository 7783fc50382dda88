package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// maxCollectionBytes bounds a single collection document.
const maxCollectionBytes = 16 << 20

// HTTPSource fetches collections from a web server, as the browser application did.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the address a source id is fetched from.
func (s *HTTPSource) URL(id string) string {
	parts := strings.Split(strings.TrimLeft(ResolveName(id), "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

func (s *HTTPSource) Fetch(ctx context.Context, id string) ([]*tree.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(id), nil)
	if err != nil {
		return nil, &FetchError{SourceID: id, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, text/markdown;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{SourceID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{SourceID: id, Status: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{
			SourceID: id,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(respBody))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCollectionBytes))
	if err != nil {
		return nil, &FetchError{SourceID: id, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	format := FormatFor(id)
	switch ct := resp.Header.Get("Content-Type"); {
	case strings.Contains(ct, "json"):
		format = FormatJSON
	case strings.Contains(ct, "yaml"):
		format = FormatYAML
	case strings.Contains(ct, "markdown"):
		format = FormatMarkdown
	}
	return Decode(id, body, format)
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
