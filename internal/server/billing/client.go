// Package billing talks to the external billing provider that owns
// subscription state.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// Client reports whether a user currently holds an active subscription.
type Client interface {
	IsSubscribed(ctx context.Context, userID string) (bool, error)
}

// HTTPClient calls the billing provider's REST API:
//
//	GET {base}/v1/customers/{userID}/subscription  ->  {"active": bool}
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type subscriptionResponse struct {
	Active bool `json:"active"`
}

func (c *HTTPClient) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	const op = "billing.IsSubscribed"

	u := c.baseURL + "/v1/customers/" + url.PathEscape(userID) + "/subscription"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, common.ErrorExternal, err)
	}
	defer resp.Body.Close()

	// An unknown customer simply has no subscription.
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%s: %w: unexpected status %s", op, common.ErrorExternal, resp.Status)
	}

	var body subscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, common.ErrorExternal, err)
	}
	return body.Active, nil
}

// Static answers every check with the same value. It stands in for the
// provider when no billing endpoint is configured.
type Static struct {
	Active bool
}

func (s Static) IsSubscribed(context.Context, string) (bool, error) {
	return s.Active, nil
}
