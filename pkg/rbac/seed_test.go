package rbac_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

func TestDefaultRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := store.NewMemory()
	r := rbac.NewResolver(s)
	m := rbac.NewManager(s)

	n, err := rbac.Seed(ctx, m, rbac.DefaultRoles())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	tests := []struct {
		role    string
		allowed []string
		denied  []string
	}{
		{"guest", []string{"workflow:read"}, []string{"workflow:execute", "agent:read"}},
		{"user", []string{"workflow:read", "workflow:execute", "agent:execute"}, []string{"workflow:write"}},
		{"api", []string{"workflow:write", "agent:write", "agent:read"}, []string{"workflow:delete"}},
		{"admin", []string{"workflow:delete", "billing:anything"}, nil},
	}

	for _, tt := range tests {
		set, err := r.Effective(ctx, tt.role)
		require.NoError(t, err, tt.role)
		for _, p := range tt.allowed {
			assert.True(t, set.Allows(p), "%s should allow %s", tt.role, p)
		}
		for _, p := range tt.denied {
			assert.False(t, set.Allows(p), "%s should deny %s", tt.role, p)
		}
	}

	t.Run("reseeding keeps existing roles", func(t *testing.T) {
		_, err := m.GrantPermission(ctx, "guest", "agent:read")
		require.NoError(t, err)

		n, err := rbac.Seed(ctx, m, rbac.DefaultRoles())
		require.NoError(t, err)
		assert.Zero(t, n)

		guest, err := m.GetRole(ctx, "guest")
		require.NoError(t, err)
		assert.Contains(t, guest.Permissions, "agent:read")
	})
}

func TestLoadSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		want    []string
		wantErr error
	}{
		{
			name: "parents first",
			doc: `
roles:
  - name: editor
    permissions: ["reports:write"]
    parents: [viewer]
  - name: viewer
    permissions: ["reports:read"]
`,
			want: []string{"viewer", "editor"},
		},
		{
			name: "cycle",
			doc: `
roles:
  - name: a
    parents: [b]
  - name: b
    parents: [a]
`,
			wantErr: rbac.ErrCircularInheritance,
		},
		{
			name:    "unknown parent",
			doc:     "roles:\n  - name: a\n    parents: [nope]\n",
			wantErr: rbac.ErrParentNotFound,
		},
		{
			name:    "duplicate",
			doc:     "roles:\n  - name: a\n  - name: a\n",
			wantErr: rbac.ErrInvalidSeed,
		},
		{
			name:    "unknown field",
			doc:     "roles:\n  - name: a\n    inherits: [b]\n",
			wantErr: rbac.ErrInvalidSeed,
		},
		{
			name:    "bad permission",
			doc:     "roles:\n  - name: a\n    permissions: [\"read\"]\n",
			wantErr: rbac.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			roles, err := rbac.LoadSeed(strings.NewReader(tt.doc))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, rbac.ErrInvalidSeed)
				return
			}
			require.NoError(t, err)
			names := make([]string, 0, len(roles))
			for _, r := range roles {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
