// Package gemini calls the Google AI Studio generateContent API with a
// server-side API key.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pysugar/meeting-nexus/internal/util"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
	defaultTimeout = 60 * time.Second
	maxRetries     = 2
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("gemini API key is not configured")

// Summarizer turns meeting transcripts into summaries.
type Summarizer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

// NewSummarizer creates a Summarizer. Empty model and baseURL fall back to
// the defaults.
func NewSummarizer(apiKey, model, baseURL string, timeout time.Duration) *Summarizer {
	return NewSummarizerWithClient(apiKey, model, baseURL, timeout, nil)
}

// NewSummarizerWithClient creates a Summarizer with an optional custom HTTP client.
func NewSummarizerWithClient(apiKey, model, baseURL string, timeout time.Duration, httpClient *http.Client) *Summarizer {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Summarizer{
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// IsEnabled indicates whether the summarizer has an API key.
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.apiKey != ""
}

func (s *Summarizer) backOff() backoff.BackOff {
	if s.newBackOff != nil {
		return s.newBackOff()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	return bo
}

// Prompt builds the summarization prompt for transcript.
func Prompt(transcript string) string {
	return "Summarize the following meeting transcript:\n\n" + transcript
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Summarize asks the model for a summary of transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt(transcript)}}}},
	})
	if err != nil {
		return "", err
	}

	target := s.baseURL + "/v1beta/models/" + url.PathEscape(s.model) + ":generateContent"
	bo := &hintedBackOff{BackOff: s.backOff()}

	var raw []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build gemini request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read gemini response: %w", err))
		}
		if resp.StatusCode == http.StatusOK {
			return nil
		}

		err = fmt.Errorf("gemini returned %d: %s", resp.StatusCode, util.TruncateBytes(raw))
		if !retryable(resp.StatusCode) {
			return backoff.Permanent(err)
		}
		hint := retryDelay(resp.Header, raw)
		if hint > maxRetryDelay {
			return backoff.Permanent(err)
		}
		bo.hint = hint
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)); err != nil {
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked the prompt: %s", out.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return sb.String(), nil
}
