package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pysugar/meeting-nexus/internal/auth/google"
	"github.com/pysugar/meeting-nexus/internal/auth/token"
	"github.com/pysugar/meeting-nexus/internal/config"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/db/dbtest"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
	"github.com/pysugar/meeting-nexus/internal/upstream/gemini"
	"github.com/pysugar/meeting-nexus/internal/upstream/notion"
	"github.com/pysugar/meeting-nexus/internal/upstream/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// googleStub answers the token, userinfo and Gmail endpoints.
type googleStub struct {
	mu      sync.Mutex
	bearers []string
	grants  []string
}

func (g *googleStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/token":
		_ = r.ParseForm()
		grant := r.PostForm.Get("grant_type")
		g.mu.Lock()
		g.grants = append(g.grants, grant)
		g.mu.Unlock()
		if grant == "authorization_code" {
			_, _ = w.Write([]byte(`{"access_token":"A0","refresh_token":"R1","token_type":"Bearer","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"A1","token_type":"Bearer","expires_in":3600}`))
	case r.URL.Path == "/oauth2/v2/userinfo":
		_, _ = w.Write([]byte(`{"id":"g-1","email":"alice@example.com","name":"Alice","picture":"https://example.com/a.png"}`))
	case r.URL.Path == "/gmail/v1/users/me/messages":
		g.mu.Lock()
		g.bearers = append(g.bearers, r.Header.Get("Authorization"))
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1"}]}`))
	case r.URL.Path == "/gmail/v1/users/me/messages/m1":
		_, _ = w.Write([]byte(`{"id":"m1","snippet":"hello","payload":{"headers":[{"name":"Subject","value":"Hi"}]}}`))
	default:
		http.NotFound(w, r)
	}
}

type env struct {
	router http.Handler
	creds  *db.CredentialStore
	tokens *token.Manager
	stub   *googleStub
	notes  *db.NoteStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	stub := &googleStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.GoogleClientID = "cid"
	cfg.GoogleClientSecret = "secret"
	cfg.AppURL = "https://app.example.com"
	cfg.UpstreamTimeout = 5 * time.Second

	provider := google.NewProvider(cfg,
		google.WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		google.WithAPIEndpoint(srv.URL+"/"),
	)

	database := dbtest.New(t)
	creds := db.NewCredentialStore(database)
	notes := db.NewNoteStore(database)
	cookies := session.Cookies{}
	tokens := token.NewManager(provider, creds, logging.Nop())

	router := NewRouter(Deps{
		Log:       logging.Nop(),
		Auth:      google.NewHandlers(provider, creds, cookies, cfg.BaseURL()),
		Resolver:  session.NewResolver(creds),
		Cookies:   cookies,
		Tokens:    tokens,
		Workspace: workspace.New(provider.APIEndpoint()),
		Notes:     notes,
		Meetings:  db.NewMeetingStore(database),
		Summary:   gemini.NewSummarizer("", "", "", 0),
		Notion:    notion.NewExporter("", "", nil),
		Ping:      func(ctx context.Context) error { return db.Ping(ctx, database) },
	})
	return &env{router: router, creds: creds, tokens: tokens, stub: stub, notes: notes}
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) login(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=abc", nil))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "https://app.example.com/integrations", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	return cookies
}

func googleConnected(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []struct {
		ID        int  `json:"id"`
		Connected bool `json:"connected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 3)
	return statuses[0].Connected
}

func TestLoginThenRefreshPersistsRotatedToken(t *testing.T) {
	e := newEnv(t)

	assert.False(t, googleConnected(t, e.do(httptest.NewRequest(http.MethodGet, "/api/integrations", nil))))

	cookies := e.login(t)
	assert.True(t, googleConnected(t, e.do(httptest.NewRequest(http.MethodGet, "/api/integrations", nil), cookies...)))

	// let the stored access token lapse
	require.NoError(t, e.creds.ApplyRefresh(context.Background(), "g-1",
		db.Grant{AccessToken: "A0", Expiry: time.Now().Add(-time.Minute)}))

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/gmail/reports", nil), cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Hi"`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.tokens.Shutdown(ctx))

	e.stub.mu.Lock()
	assert.Equal(t, []string{"Bearer A1"}, e.stub.bearers)
	assert.Equal(t, []string{"authorization_code", "refresh_token"}, e.stub.grants)
	e.stub.mu.Unlock()

	user, err := e.creds.FindByGoogleID(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Equal(t, "A1", user.AccessToken)
	assert.Equal(t, "R1", user.RefreshToken)
}

func TestProtectedRoutesWithoutSession(t *testing.T) {
	e := newEnv(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/gmail/reports", ""},
		{http.MethodGet, "/api/google/calendar/events", ""},
		{http.MethodGet, "/api/google/meet", ""},
		{http.MethodGet, "/api/google/docs/doc-1", ""},
		{http.MethodGet, "/api/notes", ""},
		{http.MethodPost, "/api/notes", `{"title":"x"}`},
		{http.MethodGet, "/api/meetings", ""},
		{http.MethodDelete, "/api/meetings/m-1", ""},
		{http.MethodPut, "/api/integrations/1", `{"connected":false}`},
	} {
		rec := e.do(httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), "User not authenticated", tc.path)
		assert.Empty(t, rec.Result().Cookies(), tc.path)
	}

	notes, err := e.notes.ListForUser(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, notes)
	e.stub.mu.Lock()
	assert.Empty(t, e.stub.grants)
	e.stub.mu.Unlock()
}

func TestGoogleRoutesForUnknownIdentity(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/google/calendar/events", nil),
		&http.Cookie{Name: session.CookieUserID, Value: "g-unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Google account not connected for this user")
}

func TestDisconnectClearsCookiesKeepsRecord(t *testing.T) {
	e := newEnv(t)
	cookies := e.login(t)

	rec := e.do(httptest.NewRequest(http.MethodPut, "/api/integrations/1", strings.NewReader(`{"connected":false}`)), cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"connected":false}`, rec.Body.String())
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		assert.Equal(t, -1, c.MaxAge)
	}

	ok, err := e.creds.Exists(context.Background(), "g-1")
	require.NoError(t, err)
	assert.True(t, ok)

	rec = e.do(httptest.NewRequest(http.MethodPut, "/api/integrations/2", strings.NewReader(`{"connected":true}`)), cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"connected":true}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	rec = e.do(httptest.NewRequest(http.MethodPut, "/api/integrations/abc", strings.NewReader(`{"connected":true}`)), cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRedirectsToGoogle(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/api/auth/google/callback", loc.Query().Get("redirect_uri"))
	assert.Equal(t, "offline", loc.Query().Get("access_type"))
}

func TestCallbackWithoutCode(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Code not found")

	ok, err := e.creds.Exists(context.Background(), "g-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHealthzAndRequestID(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logging.HeaderRequestID))
}

func TestSummarizeWithoutKey(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{"transcript":"hi"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summarization is not configured")
}
