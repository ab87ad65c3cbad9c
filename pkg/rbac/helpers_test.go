package rbac_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

// flakyStore fails every read while down is set.
type flakyStore struct {
	*store.Memory
	down  atomic.Bool
	reads atomic.Int64
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.reads.Add(1)
	if f.down.Load() {
		return nil, store.ErrUnavailable
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStore) SMembers(ctx context.Context, set string) ([]string, error) {
	if f.down.Load() {
		return nil, store.ErrUnavailable
	}
	return f.Memory.SMembers(ctx, set)
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Memory: store.NewMemory()}
}

func mustCreate(t *testing.T, m *rbac.Manager, roles ...rbac.Role) {
	t.Helper()
	for _, r := range roles {
		_, err := m.CreateRole(context.Background(), r)
		require.NoError(t, err, "create %s", r.Name)
	}
}
