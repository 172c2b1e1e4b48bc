package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EPESPO-inventario/internal/asignaciones"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/config"
	"EPESPO-inventario/internal/platform/logger"
	"EPESPO-inventario/internal/platform/refcache"
	"EPESPO-inventario/internal/platform/session"
)

// upstreamCalls records the Authorization header of every forwarded call.
type upstreamCalls struct {
	mu    sync.Mutex
	calls []string
}

func (u *upstreamCalls) add(r *http.Request) {
	u.mu.Lock()
	u.calls = append(u.calls, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
	u.mu.Unlock()
}

func (u *upstreamCalls) list() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

func fakeUpstream(t *testing.T, calls *upstreamCalls) *httptest.Server {
	users := map[string]string{
		"admin@epespo.edu.ec":  `{"access_token":"admintok","user":{"id":1,"nombre":"Admin","correo":"admin@epespo.edu.ec","rol":"admin"}}`,
		"lector@epespo.edu.ec": `{"access_token":"readertok","user":{"id":2,"nombre":"Lector","correo":"lector@epespo.edu.ec","rol":"lector"}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		switch r.URL.Path {
		case "/login":
			var body struct {
				Email string `json:"correo"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = io.WriteString(w, users[body.Email])
		case "/usuarios":
			_, _ = io.WriteString(w, `[]`)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRouter(t *testing.T, calls *upstreamCalls) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := fakeUpstream(t, calls)
	log := logger.Discard()
	cfg := &config.Config{Mode: "test", Timezone: "America/Guayaquil"}
	client := backend.New(srv.URL, 5*time.Second, nil, log)
	return newRouter(cfg, log, session.NewStore(), client,
		refcache.New(time.Minute, time.Minute), asignaciones.NewMemoryJournal())
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := call(r, http.MethodPost, "/api/v2/login", "", `{"correo":"`+email+`","contrasena":"secreto1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestGatewayAuthenticatesEachRequest(t *testing.T) {
	calls := &upstreamCalls{}
	r := testRouter(t, calls)

	adminTok := login(t, r, "admin@epespo.edu.ec")
	assert.NotEqual(t, "admintok", adminTok)

	// an admin being logged in does not open the gateway to anyone else
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v2/usuarios", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/v2/usuarios", "admintok", "").Code)
	for _, c := range calls.list() {
		assert.NotContains(t, c, "/usuarios")
	}

	readerTok := login(t, r, "lector@epespo.edu.ec")
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/v2/usuarios", readerTok, "").Code)

	// the second login did not replace the admin's identity
	w := call(r, http.MethodGet, "/api/v2/usuarios", adminTok, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, calls.list(), "GET /usuarios Bearer admintok")

	w = call(r, http.MethodGet, "/api/v2/session", readerTok, "")
	assert.JSONEq(t, `{"activa":true,"user":{"id":2,"nombre":"Lector","correo":"lector@epespo.edu.ec","rol":"lector"}}`, w.Body.String())
	w = call(r, http.MethodGet, "/api/v2/session", "", "")
	assert.JSONEq(t, `{"activa":false}`, w.Body.String())
}

func TestGatewayLogoutEndsOnlyCallerSession(t *testing.T) {
	calls := &upstreamCalls{}
	r := testRouter(t, calls)
	adminTok := login(t, r, "admin@epespo.edu.ec")
	readerTok := login(t, r, "lector@epespo.edu.ec")

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/api/v2/logout", "", "").Code)

	w := call(r, http.MethodPost, "/api/v2/logout", readerTok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, calls.list(), "POST /logout Bearer readertok")

	w = call(r, http.MethodGet, "/api/v2/session", readerTok, "")
	assert.JSONEq(t, `{"activa":false}`, w.Body.String())
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v2/usuarios", adminTok, "").Code)
}
