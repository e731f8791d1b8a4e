package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/observability"
)

// maxCatalogueBytes caps the size of a remote catalogue document.
const maxCatalogueBytes = 32 << 20

// HTTPSource fetches JSON catalogue documents from {BaseURL}/{systemID}.json.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates an HTTPSource with a 30 second client timeout.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch implements Source. Network failures and 5xx responses are returned
// as retryable so that CachedSource retries them.
func (s *HTTPSource) Fetch(ctx context.Context, systemID string) (*Snapshot, error) {
	if err := errors.ValidateSystemID(systemID); err != nil {
		return nil, err
	}
	u, err := url.JoinPath(s.BaseURL, systemID+".json")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "catalogue url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "catalogue request")
	}
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := s.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch catalogue %s", systemID))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound("remote catalogue has no system %q", systemID)
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(errors.New(errors.ErrCodeNetwork, "fetch catalogue %s: status %d", systemID, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeNetwork, "fetch catalogue %s: status %d", systemID, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogueBytes))
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read catalogue %s", systemID))
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode catalogue %s", systemID)
	}
	if d.SystemID == "" {
		d.SystemID = systemID
	}
	if d.SystemID != systemID {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "catalogue for %q returned system %q", systemID, d.SystemID)
	}
	return NewSnapshot(d)
}

// String implements fmt.Stringer.
func (s *HTTPSource) String() string { return fmt.Sprintf("http(%s)", s.BaseURL) }
