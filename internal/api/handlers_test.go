package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
)

var testSecret = []byte("test-secret")

func newTestAPI(t *testing.T, webhook http.Handler) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	api := New(Options{
		Store:       db.Wrap(conn),
		Logger:      logging.Discard(),
		Webhook:     webhook,
		WebhookPath: "/bot123:abc",
		JWTSecret:   string(testSecret),
	})
	return api.Handler(), mock
}

func adminRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	token, err := IssueToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	w := serve(h, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "server running successfully", w.Body.String())
}

func TestWebhookRoute(t *testing.T) {
	hits := 0
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})
	h, _ := newTestAPI(t, webhook)

	w := serve(h, httptest.NewRequest("POST", "/bot123:abc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, hits)

	w = serve(h, httptest.NewRequest("POST", "/bot999:zzz", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 1, hits)
}

func TestAuthMiddleware(t *testing.T) {
	h, _ := newTestAPI(t, nil)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString(testSecret)
	require.NoError(t, err)

	viewer := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "viewer"})
	viewerToken, err := viewer.SignedString(testSecret)
	require.NoError(t, err)

	foreign, err := IssueToken([]byte("other-secret"), "ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"not admin", "Bearer " + viewerToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/groups", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(h, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	_, err := IssueToken(nil, "ops", time.Hour)
	require.Error(t, err)
}

func TestListGroups(t *testing.T) {
	h, mock := newTestAPI(t, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM groups ORDER BY created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "owner", "created_at"}).
			AddRow(int64(-1001), "Builders", "Builders HQ", "alice", now))

	w := serve(h, adminRequest(t, "GET", "/api/groups"))
	require.Equal(t, http.StatusOK, w.Code)

	var groups []db.Group
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, int64(-1001), groups[0].ID)
	assert.Equal(t, "Builders", groups[0].Name)
	assert.Equal(t, "Builders HQ", groups[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListGroups_EmptyIsArray(t *testing.T) {
	h, mock := newTestAPI(t, nil)
	mock.ExpectQuery("SELECT (.+) FROM groups").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "owner", "created_at"}))

	w := serve(h, adminRequest(t, "GET", "/api/groups"))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestGetGroup(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, mock := newTestAPI(t, nil)
		mock.ExpectQuery("SELECT (.+) FROM groups WHERE id").
			WithArgs(int64(-1001)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "owner", "created_at"}).
				AddRow(int64(-1001), "Builders", "Builders", "alice", time.Now()))

		w := serve(h, adminRequest(t, "GET", "/api/groups/-1001"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"owner":"alice"`)
	})

	t.Run("not found", func(t *testing.T) {
		h, mock := newTestAPI(t, nil)
		mock.ExpectQuery("SELECT (.+) FROM groups WHERE id").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "owner", "created_at"}))

		w := serve(h, adminRequest(t, "GET", "/api/groups/42"))
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		h, _ := newTestAPI(t, nil)
		w := serve(h, adminRequest(t, "GET", "/api/groups/abc"))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("query error", func(t *testing.T) {
		h, mock := newTestAPI(t, nil)
		mock.ExpectQuery("SELECT (.+) FROM groups WHERE id").
			WillReturnError(errors.New("connection reset"))

		w := serve(h, adminRequest(t, "GET", "/api/groups/1"))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestListReactions(t *testing.T) {
	h, mock := newTestAPI(t, nil)
	mock.ExpectQuery("SELECT (.+) FROM reactions").
		WithArgs(int64(-1001), "77").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "message_id", "group_id", "value", "created_at"}).
			AddRow(int64(1), "bob", "77", int64(-1001), db.ReactionApprove, time.Now()).
			AddRow(int64(2), "carol", "77", int64(-1001), db.ReactionReject, time.Now()))

	w := serve(h, adminRequest(t, "GET", "/api/groups/-1001/messages/77/reactions"))
	require.Equal(t, http.StatusOK, w.Code)

	var reactions []db.Reaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reactions))
	require.Len(t, reactions, 2)
	assert.Equal(t, "bob", reactions[0].Username)
	assert.Equal(t, db.ReactionReject, reactions[1].Value)
}

func TestRewards(t *testing.T) {
	t.Run("pending list", func(t *testing.T) {
		h, mock := newTestAPI(t, nil)
		mock.ExpectQuery("SELECT username, value, updated_at FROM rewards").
			WillReturnRows(sqlmock.NewRows([]string{"username", "value", "updated_at"}).
				AddRow("alice", 3, time.Now()))

		w := serve(h, adminRequest(t, "GET", "/api/rewards"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"value":3`)
	})

	t.Run("single user", func(t *testing.T) {
		h, mock := newTestAPI(t, nil)
		mock.ExpectQuery("SELECT value FROM rewards WHERE username").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(2))

		w := serve(h, adminRequest(t, "GET", "/api/rewards/alice"))
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"username":"alice","value":2}`, w.Body.String())
	})
}
