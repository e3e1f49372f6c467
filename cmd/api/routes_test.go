package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"declaration-platform/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func testConfig(t *testing.T, defaultRole string) config.Config {
	t.Helper()
	cfg := config.Config{
		App:  config.AppConfig{Env: "local"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", DefaultRole: defaultRole},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newTestRouter(t *testing.T, cfg config.Config, b backends) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, err := newRouter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), b)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return r
}

type client struct {
	t *testing.T
	r *gin.Engine
}

func (c client) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func (c client) login(username string) string {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login %s: expected 200, got %d", username, w.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		c.t.Fatalf("login decode: %v", err)
	}
	return resp.Token
}

func TestAPI_AdminFlow(t *testing.T) {
	c := client{t: t, r: newTestRouter(t, testConfig(t, ""), backends{})}

	if w := c.do(http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	if w := c.do(http.MethodGet, "/api/v1/ping", "", nil); w.Code != http.StatusOK {
		t.Fatalf("ping: %d", w.Code)
	}

	tok := c.login("alice")

	w := c.do(http.MethodGet, "/api/v1/auth/me", tok, nil)
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if w.Code != http.StatusOK || me.Username != "alice" || me.Role != "Admin" {
		t.Fatalf("me: %d %+v", w.Code, me)
	}

	if w := c.do(http.MethodGet, "/api/v1/auth/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	w = c.do(http.MethodPost, "/api/v1/declarations", tok, map[string]string{"text": "scale web to 3"})
	var submitted struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &submitted)
	if w.Code != http.StatusOK || submitted.ID == "" {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}

	if w := c.do(http.MethodPost, "/api/v1/declarations/"+submitted.ID+"/commit", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("commit: %d %s", w.Code, w.Body.String())
	}

	w = c.do(http.MethodGet, "/api/v1/audit", tok, nil)
	var evs []map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &evs)
	if w.Code != http.StatusOK || len(evs) != 3 {
		t.Fatalf("audit: %d %s", w.Code, w.Body.String())
	}

	if w := c.do(http.MethodPost, "/api/v1/auth/logout", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if w := c.do(http.MethodGet, "/api/v1/auth/me", tok, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestAPI_UserCannotCommit(t *testing.T) {
	c := client{t: t, r: newTestRouter(t, testConfig(t, "User"), backends{})}
	tok := c.login("bob")

	w := c.do(http.MethodPost, "/api/v1/declarations", tok, map[string]string{"text": "x"})
	var submitted struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &submitted)

	if w := c.do(http.MethodPost, "/api/v1/declarations/"+submitted.ID+"/commit", tok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := c.do(http.MethodGet, "/api/v1/declarations", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("users may list declarations, got %d", w.Code)
	}
}

func TestAPI_LoginRateLimited(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.HTTP.LoginRatePerMinute = 1
	cfg.HTTP.LoginRateBurst = 2
	c := client{t: t, r: newTestRouter(t, cfg, backends{})}

	c.login("a")
	c.login("b")
	if w := c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "c"}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestAPI_RedisDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := client{t: t, r: newTestRouter(t, testConfig(t, ""), backends{rdb: rdb})}
	tok := c.login("alice")

	if w := c.do(http.MethodPost, "/api/v1/auth/logout", tok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one revoked key in redis, got %v", mr.Keys())
	}
	if w := c.do(http.MethodGet, "/api/v1/auth/me", tok, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}

	mr.Close()
	tok = c.login("alice")
	if w := c.do(http.MethodGet, "/api/v1/auth/me", tok, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while denylist is down, got %d", w.Code)
	}
}

func TestOpenBackends_NothingConfigured(t *testing.T) {
	b, closeFn, err := openBackends(context.Background(), testConfig(t, ""), slog.Default())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if b.db != nil || b.rdb != nil {
		t.Fatalf("expected in-memory backends, got %+v", b)
	}
}

func TestCORS_ForeignOriginRejected(t *testing.T) {
	c := client{t: t, r: newTestRouter(t, testConfig(t, ""), backends{})}
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
