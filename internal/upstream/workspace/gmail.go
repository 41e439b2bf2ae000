package workspace

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
)

const gmailReportLimit = 10

// Report is a recent email rendered as a report card.
type Report struct {
	ID      string   `json:"id"`
	Source  string   `json:"source"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Owner   string   `json:"owner"`
	Date    string   `json:"date"`
	Snippet string   `json:"snippet"`
}

// GmailReports returns the latest messages in the mailbox, newest first.
func (c *Client) GmailReports(ctx context.Context, hc *http.Client) ([]Report, error) {
	svc, err := c.gmail(ctx, hc)
	if err != nil {
		return nil, err
	}

	list, err := svc.Users.Messages.List("me").MaxResults(gmailReportLimit).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(list.Messages) == 0 {
		return []Report{}, nil
	}

	reports := make([]Report, len(list.Messages))
	limiter := newGmailLimiter()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gmailConcurrency)
	for i, m := range list.Messages {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			msg, err := svc.Users.Messages.Get("me", m.Id).
				Format("metadata").
				MetadataHeaders("Subject", "Date", "From").
				Context(gctx).Do()
			if err != nil {
				return err
			}
			reports[i] = toReport(msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func toReport(msg *gmail.Message) Report {
	subject, date, from := "No Subject", "", "Unknown Sender"
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			if h.Value == "" {
				continue
			}
			switch h.Name {
			case "Subject":
				subject = h.Value
			case "Date":
				date = h.Value
			case "From":
				from = h.Value
			}
		}
	}
	if date == "" {
		date = time.Now().UTC().Format(time.RFC3339)
	}
	return Report{
		ID:      msg.Id,
		Source:  "Gmail",
		Title:   subject,
		Tags:    []string{"Email"},
		Owner:   senderName(from),
		Date:    date,
		Snippet: msg.Snippet,
	}
}

// senderName returns the display name part of a From header.
func senderName(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		return strings.TrimSpace(from[:i])
	}
	return from
}
