package google

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// IsPermanentGrantError reports whether a token endpoint failure will not
// go away on retry: the code or refresh token was rejected, or the client
// itself is misconfigured.
func IsPermanentGrantError(err error) bool {
	if err == nil {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "":
		case "temporarily_unavailable", "server_error":
			return false
		default:
			return true
		}
		if re.Response != nil && re.Response.StatusCode >= 400 && re.Response.StatusCode < 500 &&
			re.Response.StatusCode != http.StatusTooManyRequests {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"token has been expired or revoked",
		"revoked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
