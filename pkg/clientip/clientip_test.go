package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/clientip"
)

func TestExtractor_GetIP(t *testing.T) {
	t.Parallel()

	ext, err := clientip.New(clientip.WithTrustedProxies("10.0.0.0/8"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For single hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For rightmost untrusted hop",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.178, 203.0.113.195"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For skips trusted hops",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 10.0.0.7, 10.0.0.8"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For only trusted hops",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.5, 10.0.0.7"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "10.0.0.5",
		},
		{
			name:       "X-Forwarded-For invalid untrusted hop falls back to peer",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, garbage"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "10.1.2.3",
		},
		{
			name:       "CDN header ignored by default",
			headers:    map[string]string{"CF-Connecting-IP": "10.9.9.9"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "10.1.2.3",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "192.168.1.1"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "192.168.1.1",
		},
		{
			name:       "headers ignored from untrusted peer",
			headers:    map[string]string{"X-Forwarded-For": "10.9.9.9"},
			remoteAddr: "203.0.113.50:1234",
			expected:   "203.0.113.50",
		},
		{
			name:       "invalid headers fall back to peer",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			remoteAddr: "10.1.2.3:54321",
			expected:   "10.1.2.3",
		},
		{
			name:       "IPv6 peer",
			remoteAddr: "[2001:db8::1]:443",
			expected:   "2001:db8::1",
		},
		{
			name:       "IPv4-mapped IPv6 unmapped",
			remoteAddr: "[::ffff:192.0.2.1]:443",
			expected:   "192.0.2.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.7",
			expected:   "192.0.2.7",
		},
		{
			name:       "garbage remote addr",
			remoteAddr: "nonsense",
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ext.GetIP(req))
		})
	}
}

func TestExtractor_GetIP_ForwardedForSpoofing(t *testing.T) {
	t.Parallel()

	ext, err := clientip.New(clientip.WithTrustedProxies("172.16.0.0/12"))
	require.NoError(t, err)
	allow, err := clientip.ParseAllowList([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		xff      []string
		expected string
	}{
		{"client prepends an allowed address", []string{"10.1.2.3, 203.0.113.9"}, "203.0.113.9"},
		{"client sends its own header line", []string{"10.1.2.3", "203.0.113.9"}, "203.0.113.9"},
		{"chain through two trusted proxies", []string{"10.1.2.3, 203.0.113.9, 172.16.0.9"}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "172.16.0.2:443"
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}

			ip := ext.GetIP(req)
			assert.Equal(t, tt.expected, ip)
			assert.False(t, allow.Contains(ip), "spoofed address must not satisfy the allow-list")
		})
	}
}

func TestExtractor_WithHeaders(t *testing.T) {
	t.Parallel()

	ext, err := clientip.New(
		clientip.WithTrustedProxies("10.0.0.0/8"),
		clientip.WithHeaders("CF-Connecting-IP", "X-Forwarded-For"),
	)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:54321"
	req.Header.Set("CF-Connecting-IP", "203.0.113.195")
	req.Header.Set("X-Forwarded-For", "198.51.100.178")
	assert.Equal(t, "203.0.113.195", ext.GetIP(req))
}

func TestGetIP_IgnoresHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:80"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientip.GetIP(req))
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	t.Parallel()

	_, err := clientip.New(clientip.WithTrustedProxies("10.0.0.0/99"))
	assert.ErrorIs(t, err, clientip.ErrInvalidPrefix)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	ext, err := clientip.New()
	require.NoError(t, err)

	var got string
	h := ext.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.GetIPFromContext(r.Context())
		assert.Equal(t, got, clientip.FromRequest(r))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.4", got)
}

func TestFromRequest_FallsBackToPeer(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", clientip.FromRequest(req))
}
