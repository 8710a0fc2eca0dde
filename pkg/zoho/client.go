// Package zoho provides a client for the Zoho Books OAuth and items APIs.
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	// MaxPerPage is the largest page size the items endpoint accepts.
	MaxPerPage = 1000

	defaultAccountsURL = "https://accounts.zoho.com"
	defaultAPIURL      = "https://www.zohoapis.com"
)

// Client defines the Zoho Books operations used by the pipeline.
type Client interface {
	// ExchangeGrant trades a one-time grant code for access and refresh tokens.
	ExchangeGrant(ctx context.Context, clientID, clientSecret, code string) (*TokenResponse, error)
	// RefreshToken mints a new access token from a refresh token.
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error)
	// ListItems fetches one page of the organization's item catalog.
	ListItems(ctx context.Context, accessToken, organizationID string, page, perPage int) (*ItemsPage, error)
}

// TokenResponse is the parsed OAuth token endpoint response.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	TokenType        string `json:"token_type"`
	APIDomain        string `json:"api_domain"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExpiresAt converts ExpiresIn to an absolute time relative to now.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ItemsPage is one page of the items listing.
type ItemsPage struct {
	Code        int              `json:"code"`
	Message     string           `json:"message"`
	Items       []map[string]any `json:"items"`
	PageContext PageContext      `json:"page_context"`
}

// PageContext carries the pagination flags for a page.
type PageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

// Option configures the Zoho client.
type Option func(*httpClient)

// WithAccountsURL sets a custom accounts (OAuth) base URL.
func WithAccountsURL(u string) Option {
	return func(c *httpClient) {
		c.accountsURL = strings.TrimRight(u, "/")
	}
}

// WithAPIURL sets a custom API base URL.
func WithAPIURL(u string) Option {
	return func(c *httpClient) {
		c.apiURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	accountsURL string
	apiURL      string
	http        *http.Client
}

// NewClient creates a new Zoho Books client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		accountsURL: defaultAccountsURL,
		apiURL:      defaultAPIURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ExchangeGrant(ctx context.Context, clientID, clientSecret, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	return c.postToken(ctx, form)
}

func (c *httpClient) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

// postToken sends a form-encoded request to the token endpoint. A provider
// error (an "error" field in the body, whatever the status) comes back as
// *OAuthError; anything else that fails is a plain transport error.
func (c *httpClient) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	reqURL := c.accountsURL + "/oauth/v2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "zoho: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: token request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: read token response")
	}

	var tr TokenResponse
	parseErr := json.Unmarshal(body, &tr)

	if parseErr == nil && tr.Error != "" {
		return nil, &OAuthError{
			StatusCode:  resp.StatusCode,
			Code:        tr.Error,
			Description: tr.ErrorDescription,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("zoho: token endpoint status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if parseErr != nil {
		return nil, eris.Wrap(parseErr, "zoho: unmarshal token response")
	}

	return &tr, nil
}

func (c *httpClient) ListItems(ctx context.Context, accessToken, organizationID string, page, perPage int) (*ItemsPage, error) {
	q := url.Values{}
	q.Set("organization_id", organizationID)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	reqURL := fmt.Sprintf("%s/books/v3/items?%s", c.apiURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamFetchError{Page: page, Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamFetchError{Page: page, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Page: page, Message: err.Error(), Err: err}
	}

	var result ItemsPage
	parseErr := json.Unmarshal(body, &result)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parseErr == nil && result.Message != "" {
			msg = result.Message
		}
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Page: page, Message: msg}
	}

	if parseErr != nil {
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Page: page, Message: "invalid response body", Err: parseErr}
	}

	if result.Code != 0 {
		return nil, &UpstreamFetchError{StatusCode: resp.StatusCode, Page: page, Message: result.Message}
	}

	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
