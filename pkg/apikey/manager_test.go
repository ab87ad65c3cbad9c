package apikey_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

func newManager(t *testing.T, opts ...apikey.Option) (*apikey.Manager, store.Store) {
	t.Helper()

	s := store.NewMemory()
	roles := rbac.NewManager(s)
	_, err := rbac.Seed(context.Background(), roles, rbac.DefaultRoles())
	require.NoError(t, err)

	h, err := apikey.NewHasher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	opts = append([]apikey.Option{apikey.WithHasher(h), apikey.WithRoleChecker(roles)}, opts...)
	return apikey.NewManager(s, opts...), s
}

func TestManager_CreateAndLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, s := newManager(t)

	key, token, err := m.Create(ctx, apikey.CreateParams{
		Name:       "ci",
		Roles:      []string{"user", "api", "user"},
		AllowedIPs: []string{"10.0.0.0/8", "192.168.1.1"},
		UserID:     "u1",
		Metadata:   map[string]string{"team": "infra"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, key.ID)
	assert.True(t, key.Active)
	assert.Equal(t, []string{"api", "user"}, key.Roles)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1/32"}, key.AllowedIPs)
	assert.Nil(t, key.ExpiresAt)

	got, err := m.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, "infra", got.Metadata["team"])

	byID, err := m.Get(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, key.Name, byID.Name)

	t.Run("raw token is not stored", func(t *testing.T) {
		_, err := s.Get(ctx, "apikey:"+token)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := m.GetByToken(ctx, "ao-unknown")
		assert.ErrorIs(t, err, apikey.ErrKeyNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = m.GetByToken(ctx, "")
		assert.ErrorIs(t, err, apikey.ErrKeyNotFound)
	})
}

func TestManager_CreateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		params  apikey.CreateParams
		wantErr error
	}{
		{"empty name", apikey.CreateParams{Roles: []string{"user"}}, apikey.ErrInvalidKey},
		{"no roles", apikey.CreateParams{Name: "a"}, apikey.ErrInvalidKey},
		{"unknown role", apikey.CreateParams{Name: "a", Roles: []string{"ghost"}}, rbac.ErrRoleNotFound},
		{"bad ip", apikey.CreateParams{Name: "a", Roles: []string{"user"}, AllowedIPs: []string{"10.0.0.0/40"}}, apikey.ErrInvalidKey},
		{"expired", apikey.CreateParams{Name: "a", Roles: []string{"user"}, ExpiresAt: &past}, apikey.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.Create(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManager_NameIsUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	key, _, err := m.Create(ctx, apikey.CreateParams{Name: "dup", Roles: []string{"user"}})
	require.NoError(t, err)

	_, _, err = m.Create(ctx, apikey.CreateParams{Name: "dup", Roles: []string{"user"}})
	assert.ErrorIs(t, err, apikey.ErrNameTaken)

	require.NoError(t, m.Revoke(ctx, key.ID))
	_, _, err = m.Create(ctx, apikey.CreateParams{Name: "dup", Roles: []string{"user"}})
	assert.NoError(t, err, "name is released on revoke")
}

func TestManager_TTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m, _ := newManager(t, apikey.WithClock(func() time.Time { return now }))

	key, _, err := m.Create(ctx, apikey.CreateParams{Name: "short", Roles: []string{"user"}, TTL: time.Hour})
	require.NoError(t, err)
	require.NotNil(t, key.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *key.ExpiresAt)

	assert.False(t, key.Expired(now))
	assert.True(t, key.Expired(now.Add(time.Hour)))
}

func TestManager_Revoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	key, token, err := m.Create(ctx, apikey.CreateParams{Name: "k1", Roles: []string{"user"}})
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, key.ID))

	_, err = m.GetByToken(ctx, token)
	assert.ErrorIs(t, err, apikey.ErrKeyNotFound)

	_, err = m.Get(ctx, key.ID)
	assert.ErrorIs(t, err, apikey.ErrKeyNotFound)

	assert.ErrorIs(t, m.Revoke(ctx, key.ID), apikey.ErrKeyNotFound)

	keys, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestManager_Updates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	key, token, err := m.Create(ctx, apikey.CreateParams{Name: "k", Roles: []string{"user"}})
	require.NoError(t, err)

	updated, err := m.SetActive(ctx, key.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	got, err := m.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, got.Active)

	updated, err = m.SetIPAllowList(ctx, key.ID, []string{"203.0.113.0/24"})
	require.NoError(t, err)
	assert.True(t, updated.Restricted())

	updated, err = m.SetIPAllowList(ctx, key.ID, nil)
	require.NoError(t, err)
	assert.False(t, updated.Restricted())

	_, err = m.SetIPAllowList(ctx, key.ID, []string{"nope"})
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)

	updated, err = m.SetRoles(ctx, key.ID, []string{"admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, updated.Roles)

	_, err = m.SetRoles(ctx, key.ID, []string{"ghost"})
	assert.ErrorIs(t, err, rbac.ErrRoleNotFound)

	_, err = m.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, apikey.ErrKeyNotFound)
}

// interleavingStore runs before once, right before the first Replace reaches the store.
type interleavingStore struct {
	*store.Memory
	once   sync.Once
	before func()
}

func (s *interleavingStore) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.once.Do(s.before)
	return s.Memory.Replace(ctx, key, value, ttl)
}

func TestManager_UpdateDoesNotResurrectRevokedKey(t *testing.T) {
	t.Parallel()

	updates := []struct {
		name string
		fn   func(ctx context.Context, m *apikey.Manager, id string) error
	}{
		{"set active", func(ctx context.Context, m *apikey.Manager, id string) error {
			_, err := m.SetActive(ctx, id, true)
			return err
		}},
		{"set ip allow-list", func(ctx context.Context, m *apikey.Manager, id string) error {
			_, err := m.SetIPAllowList(ctx, id, []string{"10.0.0.0/8"})
			return err
		}},
		{"set roles", func(ctx context.Context, m *apikey.Manager, id string) error {
			_, err := m.SetRoles(ctx, id, []string{"admin"})
			return err
		}},
	}

	for _, tt := range updates {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			s := &interleavingStore{Memory: store.NewMemory()}
			roles := rbac.NewManager(s)
			_, err := rbac.Seed(ctx, roles, rbac.DefaultRoles())
			require.NoError(t, err)
			m := apikey.NewManager(s, apikey.WithRoleChecker(roles))

			key, token, err := m.Create(ctx, apikey.CreateParams{Name: "k1", Roles: []string{"user"}})
			require.NoError(t, err)

			s.before = func() { require.NoError(t, m.Revoke(ctx, key.ID)) }

			err = tt.fn(ctx, m, key.ID)
			require.ErrorIs(t, err, apikey.ErrKeyNotFound)

			_, err = m.GetByToken(ctx, token)
			assert.ErrorIs(t, err, apikey.ErrKeyNotFound, "revoked token must not authenticate")
			_, err = m.Get(ctx, key.ID)
			assert.ErrorIs(t, err, apikey.ErrKeyNotFound)
		})
	}
}

func TestManager_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newManager(t, apikey.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	for _, name := range []string{"first", "second", "third"} {
		_, _, err := m.Create(ctx, apikey.CreateParams{Name: name, Roles: []string{"guest"}})
		require.NoError(t, err)
	}

	keys, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "first", keys[0].Name)
	assert.Equal(t, "third", keys[2].Name)
}

func TestNewManager_PanicsOnNilStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { apikey.NewManager(nil) })
}
