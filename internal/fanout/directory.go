package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDirectoryUnavailable means tenant discovery failed or returned no
// tenants. Startup must abort on it: serving traffic without a tenant set
// would silently drop every fanout.
var ErrDirectoryUnavailable = errors.New("tenant directory unavailable")

// DirectoryClient fetches the tenant snapshot from the upstream coordination
// service. Used once at startup.
type DirectoryClient struct {
	baseURL string
	http    *http.Client
}

func NewDirectoryClient(baseURL string) *DirectoryClient {
	return &DirectoryClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Discover performs the read-only tenant fetch.
func (c *DirectoryClient) Discover(ctx context.Context) ([]Tenant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrDirectoryUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, resp.StatusCode)
	}

	var tenants []Tenant
	if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrDirectoryUnavailable, err)
	}
	if len(tenants) == 0 {
		return nil, fmt.Errorf("%w: empty tenant list", ErrDirectoryUnavailable)
	}
	return tenants, nil
}
