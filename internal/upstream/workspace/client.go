// Package workspace reads a user's Gmail, Calendar and Docs data through the
// Google API client libraries.
package workspace

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Rate limits for a single Gmail report fan-out.
const (
	gmailRequestsPerSecond = 10
	gmailBurst             = 5
	gmailConcurrency       = 4
)

// Client builds Google API services on top of an authorised HTTP client.
type Client struct {
	endpoint string
}

// New creates a Client. endpoint overrides the Google API base URL and is
// empty in production.
func New(endpoint string) *Client {
	return &Client{endpoint: endpoint}
}

func (c *Client) options(hc *http.Client) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return opts
}

func (c *Client) gmail(ctx context.Context, hc *http.Client) (*gmail.Service, error) {
	return gmail.NewService(ctx, c.options(hc)...)
}

func (c *Client) calendar(ctx context.Context, hc *http.Client) (*calendar.Service, error) {
	return calendar.NewService(ctx, c.options(hc)...)
}

func (c *Client) docs(ctx context.Context, hc *http.Client) (*docs.Service, error) {
	return docs.NewService(ctx, c.options(hc)...)
}

func newGmailLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(gmailRequestsPerSecond), gmailBurst)
}
