package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/pkg/ratelimit"
	"github.com/akinalp/mqvi-sync/repository"
	"github.com/akinalp/mqvi-sync/services"
)

type fakeStats struct{ stats services.Stats }

func (f fakeStats) Stats() services.Stats { return f.stats }

type fakeCounter int

func (c fakeCounter) Len() int { return int(c) }

// tokens maps a raw token to a user id; anything else is rejected.
type tokens map[string]string

func (v tokens) UserID(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func newTestReader(t *testing.T) repository.DatabaseSession {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "sync.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewStore(db.Conn).Reader()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) pkg.APIResponse {
	t.Helper()

	resp := pkg.APIResponse{Data: data}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ─── Status ───

func TestStatus(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader(t)
	require.NoError(t, reader.SaveCurrentUser(ctx, &models.CurrentUser{UserID: "me"}))
	require.NoError(t, reader.AddPendingDelivery(ctx, models.PendingDelivery{
		CID: "messaging:general", MessageID: "m1", CreatedAt: time.Now(),
	}))

	h := NewStatusHandler(fakeStats{services.Stats{Batches: 3}}, fakeCounter(2), reader)
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body StatusResponse
	resp := decode(t, rec, &body)
	assert.True(t, resp.Success)
	assert.Equal(t, "me", body.UserID)
	assert.Equal(t, int64(3), body.Sync.Batches)
	assert.Equal(t, 2, body.Subscribers)
	require.Len(t, body.PendingDeliveries, 1)
	assert.Equal(t, "m1", body.PendingDeliveries[0].MessageID)
}

func TestStatus_NoCurrentUser(t *testing.T) {
	h := NewStatusHandler(fakeStats{}, fakeCounter(0), newTestReader(t))
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChannel(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader(t)
	require.NoError(t, reader.SaveCurrentUser(ctx, &models.CurrentUser{UserID: "me"}))
	require.NoError(t, reader.SaveChannel(ctx, &models.Channel{CID: "messaging:general", Type: "messaging", ID: "general"}))
	require.NoError(t, reader.MarkChannelRead(ctx, "messaging:general", "me", time.Now(), "m1"))
	require.NoError(t, reader.AddTypingUser(ctx, "messaging:general", "bob", time.Now()))
	require.NoError(t, reader.AddWatcher(ctx, "messaging:general", "carol"))

	h := NewStatusHandler(fakeStats{}, fakeCounter(0), reader)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/channels/{cid}", h.Channel)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/channels/messaging:general", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body ChannelResponse
	decode(t, rec, &body)
	require.NotNil(t, body.Channel)
	assert.Equal(t, "messaging:general", body.Channel.CID)
	require.NotNil(t, body.Read)
	assert.Equal(t, "m1", body.Read.LastReadMessageID)
	assert.Equal(t, []string{"bob"}, body.TypingIDs)
	assert.Equal(t, []string{"carol"}, body.Watchers)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/channels/messaging:ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─── Auth ───

func newTestAuth(t *testing.T, maxAttempts int) *AuthMiddleware {
	t.Helper()

	limiter := ratelimit.NewAttemptLimiter(maxAttempts, time.Minute)
	t.Cleanup(limiter.Close)

	return NewAuthMiddleware(tokens{"good": "me", "stranger": "bob"}, "me", limiter)
}

func authRequest(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestAuth_Require(t *testing.T) {
	auth := newTestAuth(t, 10)

	var seen string
	next := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(UserIDContextKey).(string)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer good", status: http.StatusNoContent},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "other user", header: "Bearer stranger", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, authRequest(tt.header))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, "me", seen)
}

func TestAuth_ThrottlesFailures(t *testing.T) {
	auth := newTestAuth(t, 2)
	next := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 2 {
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, authRequest("Bearer nope"))
		require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, authRequest("Bearer good"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
