// Package reddit wraps the Reddit OAuth and submission APIs used to
// mirror threads as self posts.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kevinmiles/Enceladus-API/internal/metrics"
)

const (
	defaultAuthBaseURL = "https://ssl.reddit.com"
	defaultAPIBaseURL  = "https://oauth.reddit.com"

	requestTimeout = 15 * time.Second
)

// Scopes requested during the OAuth authorization flow.
var oauthScopes = []string{"identity", "submit", "edit", "modposts"}

// Client talks to the Reddit API on behalf of authorized users.
// All calls go through a circuit breaker so a Reddit outage cannot
// stall the mutation pipeline.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	userAgent    string

	authBaseURL string
	apiBaseURL  string

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// Tokens is the result of an OAuth code or refresh-token exchange.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Option adjusts client construction, mainly for tests.
type Option func(*Client)

// WithBaseURLs points the client at alternative Reddit hosts.
func WithBaseURLs(authBaseURL, apiBaseURL string) Option {
	return func(c *Client) {
		c.authBaseURL = strings.TrimRight(authBaseURL, "/")
		c.apiBaseURL = strings.TrimRight(apiBaseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(clientID, clientSecret, redirectURI, userAgent string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		userAgent:    userAgent,
		authBaseURL:  defaultAuthBaseURL,
		apiBaseURL:   defaultAPIBaseURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "reddit",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*10 >= counts.Requests*6
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthCodeURL builds the Reddit authorization URL for the OAuth flow.
// The state parameter is echoed back on the callback.
func (c *Client) AuthCodeURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.clientID)
	query.Set("state", state)
	query.Set("redirect_uri", c.redirectURI)
	query.Set("duration", "permanent")
	query.Set("scope", strings.Join(oauthScopes, " "))
	return c.authBaseURL + "/api/v1/authorize?" + query.Encode()
}

// ExchangeCode trades an authorization code for access and refresh tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	return c.requestTokens(ctx, "exchange_code", form)
}

// RefreshAccessToken obtains a fresh access token from a stored refresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.requestTokens(ctx, "refresh_token", form)
}

func (c *Client) requestTokens(ctx context.Context, operation string, form url.Values) (*Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	var tokens Tokens
	if err := c.do(req, operation, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned no access token")
	}
	return &tokens, nil
}

// Me returns the authenticated user's reddit username.
func (c *Client) Me(ctx context.Context, accessToken string) (string, error) {
	var result struct {
		Name  string `json:"name"`
		IsMod bool   `json:"is_mod"`
	}
	if err := c.getJSON(ctx, "me", "/api/v1/me", accessToken, &result); err != nil {
		return "", err
	}
	return result.Name, nil
}

// Lang returns the interface language from the user's reddit preferences.
func (c *Client) Lang(ctx context.Context, accessToken string) (string, error) {
	var result struct {
		Lang string `json:"lang"`
	}
	if err := c.getJSON(ctx, "prefs", "/api/v1/me/prefs", accessToken, &result); err != nil {
		return "", err
	}
	return result.Lang, nil
}

// Submit creates a self post and returns its fullname (t3_xxx).
func (c *Client) Submit(ctx context.Context, accessToken, subreddit, title, text string) (string, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "self")
	form.Set("sr", subreddit)
	form.Set("title", title)
	form.Set("text", text)

	var result struct {
		JSON struct {
			Errors [][]string `json:"errors"`
			Data   struct {
				Name string `json:"name"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := c.postForm(ctx, "submit", "/api/submit", accessToken, form, &result); err != nil {
		return "", err
	}
	if len(result.JSON.Errors) > 0 {
		return "", fmt.Errorf("submit rejected: %v", result.JSON.Errors[0])
	}
	if result.JSON.Data.Name == "" {
		return "", fmt.Errorf("submit returned no post fullname")
	}
	return result.JSON.Data.Name, nil
}

// EditPost replaces the body of an existing self post.
func (c *Client) EditPost(ctx context.Context, accessToken, fullname, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullname)
	form.Set("text", text)
	return c.postForm(ctx, "edit", "/api/editusertext", accessToken, form, nil)
}

// ApprovePost approves a post in a subreddit the user moderates.
func (c *Client) ApprovePost(ctx context.Context, accessToken, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)
	return c.postForm(ctx, "approve", "/api/approve", accessToken, form, nil)
}

// SetSticky pins or unpins a post in its subreddit.
func (c *Client) SetSticky(ctx context.Context, accessToken, fullname string, sticky bool) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("id", fullname)
	form.Set("state", fmt.Sprintf("%t", sticky))
	return c.postForm(ctx, "sticky", "/api/set_subreddit_sticky", accessToken, form, nil)
}

func (c *Client) getJSON(ctx context.Context, operation, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req, operation, out)
}

func (c *Client) postForm(ctx context.Context, operation, path, accessToken string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req, operation, out)
}

// do executes a request through the circuit breaker and decodes the
// JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, operation string, out any) error {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("reddit returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return data, nil
	})
	if err != nil {
		metrics.RedditRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("reddit %s failed: %w", operation, err)
	}
	metrics.RedditRequestsTotal.WithLabelValues(operation, "success").Inc()

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("failed to decode reddit %s response: %w", operation, err)
	}
	return nil
}
