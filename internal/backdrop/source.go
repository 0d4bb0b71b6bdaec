package backdrop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// ErrMalformedSource is returned for shader text that cannot be a program
// stage: empty bodies, HTML error pages, or text without an entry point.
var ErrMalformedSource = errors.New("backdrop: malformed shader source")

// maxSourceBytes bounds a single shader download.
const maxSourceBytes = 1 << 20

// Source is a vertex/fragment shader pair.
type Source struct {
	Vertex   string
	Fragment string
}

// Complete reports whether both stages are populated.
func (s Source) Complete() bool {
	return s.Vertex != "" && s.Fragment != ""
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Fetcher retrieves shader source text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches shader text with plain GET requests.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests give up after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs url and returns its body as text.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, Status: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "text/html" {
			return "", fmt.Errorf("%s: content type %s: %w", url, mt, ErrMalformedSource)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	text := string(body)
	if err := validateSource(text); err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}
	return text, nil
}

// validateSource rejects text that cannot hold a shader stage.
func validateSource(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrMalformedSource
	}
	if strings.HasPrefix(trimmed, "<") {
		return ErrMalformedSource
	}
	if !strings.Contains(trimmed, "main") {
		return ErrMalformedSource
	}
	return nil
}

// fetchPair retrieves the vertex stage and then the fragment stage. The
// first failure aborts the pair.
func fetchPair(ctx context.Context, f Fetcher, vertURL, fragURL string) (Source, error) {
	vert, err := f.Fetch(ctx, vertURL)
	if err != nil {
		return Source{}, fmt.Errorf("vertex shader: %w", err)
	}
	Logger().Debug("backdrop: vertex shader fetched", "bytes", len(vert))

	frag, err := f.Fetch(ctx, fragURL)
	if err != nil {
		return Source{}, fmt.Errorf("fragment shader: %w", err)
	}
	Logger().Debug("backdrop: fragment shader fetched", "bytes", len(frag))

	return Source{Vertex: vert, Fragment: frag}, nil
}
