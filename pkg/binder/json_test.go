package binder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/binder"
)

type createKey struct {
	Name     string            `json:"name"`
	Roles    []string          `json:"roles"`
	Active   *bool             `json:"active,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Resource struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"resource"`
}

func jsonRequest(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/keys", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
	}{
		{"valid", `{"name":"ci","roles":["api"]}`, "application/json", nil},
		{"charset parameter", `{"name":"ci"}`, "application/json; charset=utf-8", nil},
		{"missing content type", `{"name":"ci"}`, "", binder.ErrMissingContentType},
		{"form content type", `name=ci`, "application/x-www-form-urlencoded", binder.ErrUnsupportedMediaType},
		{"malformed content type", `{}`, "application/json; =", binder.ErrUnsupportedMediaType},
		{"empty body", ``, "application/json", binder.ErrFailedToParseJSON},
		{"truncated", `{"name":`, "application/json", binder.ErrFailedToParseJSON},
		{"wrong type", `{"name":42}`, "application/json", binder.ErrFailedToParseJSON},
		{"unknown field", `{"name":"ci","admin":true}`, "application/json", binder.ErrFailedToParseJSON},
		{"trailing value", `{"name":"ci"} {"name":"x"}`, "application/json", binder.ErrFailedToParseJSON},
		{"trailing brace", `{"name":"ci"}}`, "application/json", binder.ErrFailedToParseJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var v createKey
			err := binder.JSON()(jsonRequest(tt.body, tt.contentType), &v)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ci", v.Name)
		})
	}
}

func TestJSON_SizeLimit(t *testing.T) {
	t.Parallel()

	bind := binder.JSON(binder.WithMaxSize(32))

	var v createKey
	err := bind(jsonRequest(`{"name":"`+strings.Repeat("a", 64)+`"}`, "application/json"), &v)
	require.ErrorIs(t, err, binder.ErrBodyTooLarge)

	require.NoError(t, bind(jsonRequest(`{"name":"ci"}`, "application/json"), &v))
}

func TestJSON_Sanitizes(t *testing.T) {
	t.Parallel()

	body := `{
		"name": "  ci\u0000-bot\t ",
		"roles": [" api ", "user\u0007"],
		"active": true,
		"metadata": {"team": " infra\u001b "},
		"resource": {"type": " document ", "id": "42\n"}
	}`

	var v createKey
	require.NoError(t, binder.JSON()(jsonRequest(body, "application/json"), &v))

	assert.Equal(t, "ci-bot", v.Name)
	assert.Equal(t, []string{"api", "user"}, v.Roles)
	require.NotNil(t, v.Active)
	assert.True(t, *v.Active)
	assert.Equal(t, "infra", v.Metadata["team"])
	assert.Equal(t, "document", v.Resource.Type)
	assert.Equal(t, "42", v.Resource.ID)
}

func TestJSON_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var v createKey
	err := binder.JSON()(jsonRequest(`{"name":"ci"}`, "application/json").WithContext(ctx), &v)
	assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	assert.ErrorIs(t, err, context.Canceled)
}
