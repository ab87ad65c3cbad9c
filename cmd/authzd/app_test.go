package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/api"
	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

func testConfig() appConfig {
	return appConfig{
		Env:               "development",
		Service:           "authzd-test",
		StoreBackend:      backendMemory,
		HashSecret:        base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)),
		BootstrapAdminKey: true,
		ReadinessTimeout:  time.Second,
		TrustedCallers:    []string{"127.0.0.0/8", "::1"},
		Authz:             authz.DefaultConfig(),
		Audit: audit.Config{
			Sinks:         []string{audit.SinkMemory},
			FlushInterval: 10 * time.Millisecond,
		},
	}
}

func newTestApp(t *testing.T, cfg appConfig) *app {
	t.Helper()
	a, err := newApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApp_EndToEnd(t *testing.T) {
	t.Parallel()
	a := newTestApp(t, testConfig())
	require.NotEmpty(t, a.bootstrapToken)
	admin := a.bootstrapToken

	assert.Equal(t, http.StatusOK, call(t, a.handler, http.MethodGet, "/healthz", "", nil).Code)

	rec := call(t, a.handler, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)

	rec = call(t, a.handler, http.MethodPost, "/v1/keys", admin, api.CreateKeyRequest{Name: "worker", Roles: []string{"user"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created api.CreateKeyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = call(t, a.handler, http.MethodPost, "/v1/authorize", "", api.AuthorizeRequest{Token: created.Token, Permission: "agent:execute"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"allowed":true`)

	rec = call(t, a.handler, http.MethodPost, "/v1/authorize", "", api.AuthorizeRequest{Token: created.Token, Permission: "agent:write"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"insufficient_permission"`)

	require.Eventually(t, func() bool {
		rec := call(t, a.handler, http.MethodGet, "/v1/audit?type=authz.denied&type=system.startup", admin, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var resp api.AuditResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			return false
		}
		return resp.Count == 2
	}, 2*time.Second, 20*time.Millisecond)

	rec = call(t, a.handler, http.MethodGet, "/v1/audit/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []audit.Event
	for _, line := range strings.Split(strings.TrimSpace(rec.Body.String()), "\n") {
		var ev audit.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}
	assert.NoError(t, audit.VerifyChain(events))
}

func TestBootstrapAdmin_OnlyOnEmptyStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := store.NewMemory()
	roles := rbac.NewManager(kv)
	_, err := rbac.Seed(ctx, roles, rbac.DefaultRoles())
	require.NoError(t, err)
	keys := apikey.NewManager(kv, apikey.WithRoleChecker(roles))
	log := slog.New(slog.DiscardHandler)

	token, err := bootstrapAdmin(ctx, keys, log)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	key, err := keys.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, bootstrapKeyName, key.Name)
	assert.Equal(t, []string{"admin"}, key.Roles)

	again, err := bootstrapAdmin(ctx, keys, log)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*appConfig)
	}{
		{"unknown backend", func(c *appConfig) { c.StoreBackend = "etcd" }},
		{"unknown sink", func(c *appConfig) { c.Audit.Sinks = []string{"kafka"} }},
		{"bad secret", func(c *appConfig) { c.HashSecret = "%%%" }},
		{"short secret", func(c *appConfig) { c.HashSecret = base64.StdEncoding.EncodeToString([]byte("short")) }},
		{"production without secret", func(c *appConfig) { c.Env = "production"; c.HashSecret = "" }},
		{"missing roles file", func(c *appConfig) { c.RolesFile = "testdata/does-not-exist.yaml" }},
		{"bad trusted proxy", func(c *appConfig) { c.Authz.TrustedProxies = []string{"not-a-cidr"} }},
		{"bad trusted caller", func(c *appConfig) { c.TrustedCallers = []string{"10.0.0.0/33"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := newApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
			assert.Error(t, err)
		})
	}
}

func TestNewApp_DevelopmentWithoutSecret(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.HashSecret = ""
	a := newTestApp(t, cfg)
	assert.NotEmpty(t, a.bootstrapToken)
}
