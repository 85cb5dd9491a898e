package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"smartaiproxy/internal/channel"
	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
)

func newTestAPI(t *testing.T) (*gin.Engine, *API) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := config.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	log, err := logger.NewLogger(logger.LogConfig{Level: "error"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	api := NewAPI(store, channel.NewRegistry(store), log, "test")
	router := gin.New()
	api.RegisterRoutes(router)
	return router, api
}

func loginToken(t *testing.T, router *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "admin123"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid login response: %v", err)
	}
	if resp.Data.AccessToken == "" {
		t.Fatal("login response missing access token")
	}
	return resp.Data.AccessToken
}

func authedRequest(router *gin.Engine, token, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestAPI(t)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/channels", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token: got %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status with garbage token: got %d, want 401", w.Code)
	}
}

func TestChannelCRUDThroughAPI(t *testing.T) {
	router, api := newTestAPI(t)
	token := loginToken(t, router)

	// 新增渠道
	ch := config.ChannelConfig{
		Name:     "api-added",
		Type:     "openai",
		Endpoint: "https://example.com/v1",
		APIKey:   "k",
		Priority: 9,
		Status:   config.StatusActive,
	}
	body, _ := json.Marshal(ch)
	if w := authedRequest(router, token, http.MethodPost, "/api/channels", body); w.Code != http.StatusOK {
		t.Fatalf("create channel: %d %s", w.Code, w.Body.String())
	}
	if _, ok := api.registry.GetByName("api-added"); !ok {
		t.Fatal("channel not added through API")
	}

	// 状态更新
	statusBody, _ := json.Marshal(map[string]string{"status": config.StatusMaintenance})
	if w := authedRequest(router, token, http.MethodPut, "/api/channels/api-added/status", statusBody); w.Code != http.StatusOK {
		t.Fatalf("update status: %d %s", w.Code, w.Body.String())
	}
	got, _ := api.registry.GetByName("api-added")
	if got.Status != config.StatusMaintenance {
		t.Errorf("status: got %s, want maintenance", got.Status)
	}

	// 删除
	if w := authedRequest(router, token, http.MethodDelete, "/api/channels/api-added", nil); w.Code != http.StatusOK {
		t.Fatalf("delete channel: %d", w.Code)
	}
	if _, ok := api.registry.GetByName("api-added"); ok {
		t.Error("channel still present after delete")
	}
}

func TestRuleCRUDThroughAPI(t *testing.T) {
	router, api := newTestAPI(t)
	token := loginToken(t, router)

	before := len(api.store.Get().Rules)

	r := config.RuleConfig{
		Name:       "night-owl",
		Channel:    "Free Channel A",
		Expression: "time_of_day >= '22:00'",
		Priority:   5,
	}
	body, _ := json.Marshal(r)
	if w := authedRequest(router, token, http.MethodPost, "/api/rules", body); w.Code != http.StatusOK {
		t.Fatalf("create rule: %d %s", w.Code, w.Body.String())
	}
	if got := len(api.store.Get().Rules); got != before+1 {
		t.Errorf("rule count: got %d, want %d", got, before+1)
	}

	// 同名更新不增加数量
	r.Priority = 6
	body, _ = json.Marshal(r)
	authedRequest(router, token, http.MethodPost, "/api/rules", body)
	if got := len(api.store.Get().Rules); got != before+1 {
		t.Errorf("upsert must replace, not append: got %d rules", got)
	}

	if w := authedRequest(router, token, http.MethodDelete, "/api/rules/night-owl", nil); w.Code != http.StatusOK {
		t.Fatalf("delete rule: %d", w.Code)
	}
	if got := len(api.store.Get().Rules); got != before {
		t.Errorf("rule count after delete: got %d, want %d", got, before)
	}
}

func TestUsageEndpoint(t *testing.T) {
	router, api := newTestAPI(t)
	token := loginToken(t, router)

	api.registry.AddUsage("C1", 123)

	w := authedRequest(router, token, http.MethodGet, "/api/usage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("usage: %d", w.Code)
	}

	var resp struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid usage response: %v", err)
	}
	if resp.Data["C1"] != 123 {
		t.Errorf("usage: got %d, want 123", resp.Data["C1"])
	}
}

func TestHealthzIsPublic(t *testing.T) {
	router, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", w.Code)
	}
}
