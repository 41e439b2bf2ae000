package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestSummarize_SendsPromptWithServerKey(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		return respond(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Short "},{"text":"summary"}]}}]}`), nil
	})}

	s := NewSummarizerWithClient("server-key", "", "https://example.test/", time.Minute, client)
	summary, err := s.Summarize(context.Background(), "alice: hi\nbob: hello")
	require.NoError(t, err)

	assert.Equal(t, "Short summary", summary)
	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", gotPath)
	assert.Equal(t, "server-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "Summarize the following meeting transcript:\n\nalice: hi\nbob: hello", gotBody.Contents[0].Parts[0].Text)
}

func TestSummarize_NotConfigured(t *testing.T) {
	s := NewSummarizer("  ", "", "", 0)
	assert.False(t, s.IsEnabled())
	_, err := s.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSummarize_UpstreamErrorIsTruncated(t *testing.T) {
	long := strings.Repeat("x", 4096)
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests, long), nil
	})}

	s := NewSummarizerWithClient("k", "gemini-1.5-flash", "", time.Minute, client)
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	_, err := s.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini returned 429")
	assert.Contains(t, err.Error(), "truncated, 4096 bytes total")
}

func TestSummarize_BlockedAndEmpty(t *testing.T) {
	cases := map[string]string{
		"blocked": `{"promptFeedback":{"blockReason":"SAFETY"}}`,
		"empty":   `{"candidates":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				return respond(http.StatusOK, body), nil
			})}
			_, err := NewSummarizerWithClient("k", "", "", time.Minute, client).Summarize(context.Background(), "t")
			assert.Error(t, err)
		})
	}
}

func TestSummarize_TransportError(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial failed")
	})}
	_, err := NewSummarizerWithClient("k", "", "", time.Minute, client).Summarize(context.Background(), "t")
	assert.ErrorContains(t, err, "dial failed")
}

func TestSummarize_RetriesRateLimitWithServerDelay(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return respond(http.StatusTooManyRequests, `{"error":{"code":429,"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"0.05s"}]}}`), nil
		}
		return respond(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`), nil
	})}

	s := NewSummarizerWithClient("k", "", "", time.Minute, client)
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	start := time.Now()
	summary, err := s.Summarize(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.EqualValues(t, 2, calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSummarize_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusBadRequest, `{"error":{"code":400,"message":"bad"}}`), nil
	})}

	s := NewSummarizerWithClient("k", "", "", time.Minute, client)
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	_, err := s.Summarize(context.Background(), "t")
	assert.ErrorContains(t, err, "gemini returned 400")
	assert.EqualValues(t, 1, calls.Load())
}

func TestSummarize_LongServerDelayIsNotWaited(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		resp := respond(http.StatusServiceUnavailable, `{}`)
		resp.Header.Set("Retry-After", "120")
		return resp, nil
	})}

	_, err := NewSummarizerWithClient("k", "", "", time.Minute, client).Summarize(context.Background(), "t")
	assert.ErrorContains(t, err, "gemini returned 503")
	assert.EqualValues(t, 1, calls.Load())
}

func TestRetryDelay(t *testing.T) {
	cases := []struct {
		name   string
		header http.Header
		body   string
		want   time.Duration
	}{
		{"retry-after seconds", http.Header{"Retry-After": []string{"3"}}, "", 3 * time.Second},
		{"retry info detail", http.Header{}, `{"error":{"details":[{"retryDelay":"1.5s"}]}}`, 1500 * time.Millisecond},
		{"error info metadata", http.Header{}, `{"error":{"details":[{"reason":"RATE_LIMIT_EXCEEDED","metadata":{"retryDelay":"250ms"}}]}}`, 250 * time.Millisecond},
		{"no hint", http.Header{}, `{"error":{"message":"quota"}}`, 0},
		{"not json", http.Header{}, `<html>`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retryDelay(tc.header, []byte(tc.body)))
		})
	}
}
