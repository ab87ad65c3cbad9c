package authz_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/apikey"
	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/rbac"
	"github.com/dmitrymomot/authz/pkg/store"
)

// recorder is a synchronous audit emitter.
type recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorder) Emit(_ context.Context, e audit.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) take() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

// flakyStore fails every read while down is set.
type flakyStore struct {
	*store.Memory
	down atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.down.Load() {
		return nil, store.ErrUnavailable
	}
	return f.Memory.Get(ctx, key)
}

type fixture struct {
	store    *flakyStore
	roles    *rbac.Manager
	keys     *apikey.Manager
	engine   *authz.Engine
	audit    *recorder
	now      atomic.Pointer[time.Time]
	resolver *rbac.Resolver
}

func (f *fixture) setNow(t time.Time) { f.now.Store(&t) }

// newFixture seeds read_only (documents:read) and admin (documents:write, inherits read_only).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{store: &flakyStore{Memory: store.NewMemory()}, audit: &recorder{}}
	f.setNow(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	clock := func() time.Time { return *f.now.Load() }

	f.resolver = rbac.NewResolver(f.store)
	f.roles = rbac.NewManager(f.store, rbac.WithResolver(f.resolver))
	for _, r := range []rbac.Role{
		{Name: "read_only", Permissions: []string{"documents:read"}},
		{Name: "admin", Permissions: []string{"documents:write"}, Parents: []string{"read_only"}},
		{Name: "root", Permissions: []string{"*:*"}},
	} {
		_, err := f.roles.CreateRole(ctx, r)
		require.NoError(t, err)
	}

	f.keys = apikey.NewManager(f.store, apikey.WithRoleChecker(f.roles), apikey.WithClock(clock))
	f.engine = authz.NewEngine(f.keys, f.resolver, authz.WithEmitter(f.audit), authz.WithClock(clock))
	return f
}

func (f *fixture) newKey(t *testing.T, p apikey.CreateParams) (apikey.Key, string) {
	t.Helper()
	key, token, err := f.keys.Create(context.Background(), p)
	require.NoError(t, err)
	return key, token
}
