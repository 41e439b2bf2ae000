package gemini

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxRetryDelay is the longest server-requested wait we honour inline.
const maxRetryDelay = 10 * time.Second

// apiError is the Google error envelope; 429s carry a RetryInfo detail.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type       string            `json:"@type"`
			Reason     string            `json:"reason"`
			Metadata   map[string]string `json:"metadata"`
			RetryDelay string            `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

// retryDelay extracts the wait Google asks for, from the Retry-After header
// or the RetryInfo detail of body. Returns 0 when there is none.
func retryDelay(h http.Header, body []byte) time.Duration {
	if ra := h.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := http.ParseTime(ra); err == nil {
			return time.Until(t)
		}
	}

	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return 0
	}
	for _, d := range e.Error.Details {
		raw := d.RetryDelay
		if raw == "" {
			raw = d.Metadata["retryDelay"]
		}
		if raw == "" {
			continue
		}
		if delay, err := time.ParseDuration(raw); err == nil {
			return delay
		}
	}
	return 0
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// hintedBackOff waits at least as long as the last server hint.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if b.hint > d {
		d = b.hint
	}
	b.hint = 0
	return d
}
