package twitter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"compintel/internal/ports"
)

// Lookup resolves handles to user ids via the official v2 API. The id
// endpoint burns through the free-tier quota quickly, so production wiring
// puts a persistent cache in front of this type.
type Lookup struct {
	baseURL string
	bearer  string
	http    *http.Client
}

var _ ports.UserLookup = (*Lookup)(nil)

// NewLookup creates a user id resolver.
func NewLookup(baseURL, bearer string) *Lookup {
	return &Lookup{
		baseURL: baseURL,
		bearer:  bearer,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// LookupID returns the numeric user id for a handle. A 429 maps to
// ports.ErrRateLimited.
func (l *Lookup) LookupID(ctx context.Context, handle string) (string, error) {
	if l.bearer == "" {
		return "", fmt.Errorf("twitter lookup misconfigured")
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/2/users/by/username/%s", l.baseURL, handle)
	if err := get(ctx, l.http, l.bearer, endpoint, &resp); err != nil {
		return "", fmt.Errorf("lookup user id for %s: %w", handle, err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("no user id in response for %s", handle)
	}

	return resp.Data.ID, nil
}
