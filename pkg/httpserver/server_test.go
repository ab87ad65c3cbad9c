package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/httpserver"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func waitUp(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	var hooked atomic.Bool
	srv := httpserver.New(
		httpserver.WithShutdownTimeout(200*time.Millisecond),
		httpserver.WithShutdownHook(func() { hooked.Store(true) }),
	)
	ln := listen(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	}()
	waitUp(t, "http://"+ln.Addr().String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.True(t, hooked.Load())
	assert.NoError(t, srv.Shutdown(context.Background()), "repeated shutdown is a no-op")
}

func TestServe_ManualShutdown(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithShutdownTimeout(200 * time.Millisecond))
	ln := listen(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln, nil) }()
	waitUp(t, "http://"+ln.Addr().String())

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServe_AlreadyRunning(t *testing.T) {
	t.Parallel()

	srv := httpserver.New()
	ln := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Serve(ctx, ln, nil) }()
	waitUp(t, "http://"+ln.Addr().String())

	err := srv.Serve(ctx, listen(t), nil)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestRun_InvalidAddr(t *testing.T) {
	t.Parallel()

	ln := listen(t)
	defer ln.Close()

	err := httpserver.New(httpserver.WithAddr(ln.Addr().String())).Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(-time.Second) })
	assert.Panics(t, func() { httpserver.WithShutdownHook(nil) })
	assert.NotPanics(t, func() { httpserver.New(httpserver.WithLogger(nil)) })
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name   string
		checks map[string]httpserver.Check
		status int
		want   httpserver.HealthReport
	}{
		{
			name:   "all ok",
			checks: map[string]httpserver.Check{"store": ok, "audit": ok},
			status: http.StatusOK,
			want:   httpserver.HealthReport{Status: "ready", Checks: map[string]string{"store": "ok", "audit": "ok"}},
		},
		{
			name:   "one failing",
			checks: map[string]httpserver.Check{"store": fail, "audit": ok},
			status: http.StatusServiceUnavailable,
			want:   httpserver.HealthReport{Status: "not_ready", Checks: map[string]string{"store": "fail", "audit": "ok"}},
		},
		{
			name:   "timeout counts as failure",
			checks: map[string]httpserver.Check{"store": slow},
			status: http.StatusServiceUnavailable,
			want:   httpserver.HealthReport{Status: "not_ready", Checks: map[string]string{"store": "fail"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := httpserver.ReadinessHandler(nil, 50*time.Millisecond, tt.checks)
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.status, rec.Code)
			var got httpserver.HealthReport
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
