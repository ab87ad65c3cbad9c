package requestid_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/requestid"
)

func serve(t *testing.T, header string) (ctxID, respID string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestid.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("reuses a valid header", func(t *testing.T) {
		t.Parallel()
		ctxID, respID := serve(t, "req-123_abc")
		assert.Equal(t, "req-123_abc", ctxID)
		assert.Equal(t, ctxID, respID)
	})

	t.Run("generates when missing", func(t *testing.T) {
		t.Parallel()
		ctxID, respID := serve(t, "")
		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, respID)
	})

	for _, bad := range []string{"a b", "a/b", "<script>", "id\nx", strings.Repeat("a", 129)} {
		t.Run("replaces "+bad[:min(len(bad), 8)], func(t *testing.T) {
			t.Parallel()
			ctxID, _ := serve(t, bad)
			assert.NotEqual(t, bad, ctxID)
			assert.True(t, requestid.Valid(ctxID))
		})
	}
}

func TestValid(t *testing.T) {
	t.Parallel()
	assert.True(t, requestid.Valid("abc-DEF_123"))
	assert.True(t, requestid.Valid(strings.Repeat("a", 128)))
	assert.False(t, requestid.Valid(""))
	assert.False(t, requestid.Valid("ünicode"))
	assert.False(t, requestid.Valid("a.b"))
}

func TestContext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Empty(t, requestid.FromContext(nil))
	assert.Equal(t, "x", requestid.FromContext(requestid.WithContext(context.Background(), "x")))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "req-9"), "hello")
	log.InfoContext(context.Background(), "bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "req-9", first["request_id"])
	assert.NotContains(t, second, "request_id")
}
