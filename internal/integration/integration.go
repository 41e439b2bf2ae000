// Package integration reports which third-party accounts a user has linked.
package integration

import (
	"net/http"

	"github.com/pysugar/meeting-nexus/internal/session"
)

// IDs of the known integrations.
const (
	GoogleID  = 1
	ZoomID    = 2
	OutlookID = 3
)

// Status is one entry of the integrations list.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Statuses returns the fixed integration list. Only Google can be connected;
// Zoom and Outlook are placeholders.
func Statuses(googleConnected bool) []Status {
	return []Status{
		{ID: GoogleID, Name: "Google", Connected: googleConnected},
		{ID: ZoomID, Name: "Zoom", Connected: false},
		{ID: OutlookID, Name: "Outlook", Connected: false},
	}
}

// Update is the body of PUT /api/integrations/{id}.
type Update struct {
	ID        int  `json:"id"`
	Connected bool `json:"connected"`
}

// Apply handles an integration toggle. Disconnecting Google clears the
// session cookies and keeps the credential record; every other update is
// echoed back unchanged.
func Apply(w http.ResponseWriter, cookies session.Cookies, u Update) Update {
	if u.ID == GoogleID && !u.Connected {
		cookies.Clear(w)
	}
	return u
}
