package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvers-dev/blogapi/internal/auth"
	"github.com/anvers-dev/blogapi/internal/config"
	"github.com/anvers-dev/blogapi/internal/store/sqlite"
)

const testOrigin = "http://allowed.example"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{AllowedOrigins: []string{testOrigin}}
	return New(st, auth.NewService("test-secret", 7), cfg)
}

// doJSON sends a request through the router; body may be any JSON-encodable
// value or nil, token an optional bearer token.
func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// registerUser registers a user and returns its token and id.
func registerUser(t *testing.T, s *Server, username, email, password string) (token, id string) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/users/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	token = body["token"].(string)
	id = body["user"].(map[string]any)["id"].(string)
	return token, id
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestJSONNotFound(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"/nope"`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSDisallowedOrigin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireAuthRejections(t *testing.T) {
	s := newTestServer(t)

	// No token.
	w := doJSON(t, s, http.MethodPost, "/posts", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = doJSON(t, s, http.MethodPost, "/posts", "garbage", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token signed with a different secret.
	otherToken, err := auth.NewService("other-secret", 7).Sign("some-user")
	require.NoError(t, err)
	w = doJSON(t, s, http.MethodPost, "/posts", otherToken, map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token whose user no longer exists.
	token, id := registerUser(t, s, "ghost", "ghost@x.com", "pw123456")
	w = doJSON(t, s, http.MethodDelete, "/users/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, s, http.MethodPost, "/posts", token, map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
