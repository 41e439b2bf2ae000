package workspace

import (
	"errors"
	"net/http"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/auth/token"
	"google.golang.org/api/googleapi"
)

// ClassifyError maps a failed Google API call to an application error.
// Google rejecting the credentials means the account must be reconnected.
func ClassifyError(message string, err error) *apperr.Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return apperr.Wrap(apperr.KindIntegrationNotConnected,
				"Google authorization expired, please reconnect your Google account", err)
		case http.StatusNotFound:
			return apperr.Wrap(apperr.KindNotFound, message, err)
		}
		return apperr.Wrap(apperr.KindUpstreamFailure, message, err)
	}
	return token.ClassifyError(message, err)
}
