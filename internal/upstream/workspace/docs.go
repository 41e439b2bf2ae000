package workspace

import (
	"context"
	"net/http"

	"google.golang.org/api/docs/v1"
)

// Document fetches a Google Doc by id.
func (c *Client) Document(ctx context.Context, hc *http.Client, docID string) (*docs.Document, error) {
	svc, err := c.docs(ctx, hc)
	if err != nil {
		return nil, err
	}
	return svc.Documents.Get(docID).Context(ctx).Do()
}
