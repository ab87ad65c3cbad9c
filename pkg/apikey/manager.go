package apikey

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authz/pkg/clientip"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/store"
)

// Store layout.
const (
	keyPrefix   = "apikey:"
	idPrefix    = "apikey_id:"
	idsSetKey   = "apikeys"
	namesSetKey = "apikey_names"

	maxNameLength = 128
)

// Manager issues and administers API keys.
type Manager struct {
	store  store.Store
	hasher *Hasher
	roles  RoleChecker
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a key manager over s. Panics on nil store.
func NewManager(s store.Store, opts ...Option) *Manager {
	if s == nil {
		panic("apikey: store cannot be nil")
	}
	m := &Manager{
		store:  s,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("apikey"))
	return m
}

// Create issues a new key. The raw token is returned only here.
func (m *Manager) Create(ctx context.Context, p CreateParams) (Key, string, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > maxNameLength {
		return Key{}, "", fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidKey, maxNameLength)
	}

	roles := normalizeRoles(p.Roles)
	if len(roles) == 0 {
		return Key{}, "", fmt.Errorf("%w: at least one role is required", ErrInvalidKey)
	}

	allow, err := clientip.ParseAllowList(p.AllowedIPs)
	if err != nil {
		return Key{}, "", errors.Join(ErrInvalidKey, err)
	}

	now := m.now().UTC()
	expiresAt := p.ExpiresAt
	if expiresAt == nil && p.TTL > 0 {
		t := now.Add(p.TTL)
		expiresAt = &t
	}
	if expiresAt != nil {
		t := expiresAt.UTC()
		if !t.After(now) {
			return Key{}, "", fmt.Errorf("%w: expiry is in the past", ErrInvalidKey)
		}
		expiresAt = &t
	}

	taken, err := m.store.SIsMember(ctx, namesSetKey, name)
	if err != nil {
		return Key{}, "", err
	}
	if taken {
		return Key{}, "", fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	if m.roles != nil {
		if err := m.roles.Exists(ctx, roles...); err != nil {
			return Key{}, "", err
		}
	}

	token, err := GenerateToken()
	if err != nil {
		return Key{}, "", err
	}

	key := Key{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    p.Description,
		Hint:           Hint(token),
		Roles:          roles,
		AllowedIPs:     allowedOrNil(allow),
		UserID:         p.UserID,
		OrganizationID: p.OrganizationID,
		Metadata:       maps.Clone(p.Metadata),
		Active:         true,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	data, err := json.Marshal(key)
	if err != nil {
		return Key{}, "", err
	}
	digest := m.hasher.Hash(token)

	err = m.store.Batch(ctx, func(w store.Writer) {
		w.Set(keyPrefix+digest, data, 0)
		w.Set(idPrefix+key.ID, []byte(digest), 0)
		w.SAdd(idsSetKey, key.ID)
		w.SAdd(namesSetKey, key.Name)
	})
	if err != nil {
		return Key{}, "", err
	}

	m.logger.InfoContext(ctx, "api key created",
		logger.KeyID(key.ID), slog.String("name", key.Name), slog.Any("roles", key.Roles))
	return key, token, nil
}

// GetByToken looks a key up by its raw token. Keys are read from the store on every call.
func (m *Manager) GetByToken(ctx context.Context, token string) (Key, error) {
	if token == "" {
		return Key{}, errors.Join(ErrKeyNotFound, store.ErrNotFound)
	}
	return m.load(ctx, m.hasher.Hash(token))
}

// Get returns a key by id.
func (m *Manager) Get(ctx context.Context, id string) (Key, error) {
	key, _, err := m.getWithDigest(ctx, id)
	return key, err
}

// List returns every key, oldest first.
func (m *Manager) List(ctx context.Context) ([]Key, error) {
	ids, err := m.store.SMembers(ctx, idsSetKey)
	if err != nil {
		return nil, err
	}

	keys := make([]Key, 0, len(ids))
	for _, id := range ids {
		key, _, err := m.getWithDigest(ctx, id)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b Key) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return keys, nil
}

// Revoke deletes a key. The next lookup of its token fails.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	key, digest, err := m.getWithDigest(ctx, id)
	if err != nil {
		return err
	}

	err = m.store.Batch(ctx, func(w store.Writer) {
		w.Delete(keyPrefix+digest, idPrefix+id)
		w.SRem(idsSetKey, id)
		w.SRem(namesSetKey, key.Name)
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "api key revoked", logger.KeyID(id))
	return nil
}

// SetActive enables or disables a key without deleting it.
func (m *Manager) SetActive(ctx context.Context, id string, active bool) (Key, error) {
	return m.update(ctx, id, func(k *Key) error {
		k.Active = active
		return nil
	})
}

// SetIPAllowList replaces the key's allowed source prefixes. An empty list lifts the restriction.
func (m *Manager) SetIPAllowList(ctx context.Context, id string, prefixes []string) (Key, error) {
	allow, err := clientip.ParseAllowList(prefixes)
	if err != nil {
		return Key{}, errors.Join(ErrInvalidKey, err)
	}
	return m.update(ctx, id, func(k *Key) error {
		k.AllowedIPs = allowedOrNil(allow)
		return nil
	})
}

// SetRoles replaces the key's roles.
func (m *Manager) SetRoles(ctx context.Context, id string, roles []string) (Key, error) {
	roles = normalizeRoles(roles)
	if len(roles) == 0 {
		return Key{}, fmt.Errorf("%w: at least one role is required", ErrInvalidKey)
	}
	if m.roles != nil {
		if err := m.roles.Exists(ctx, roles...); err != nil {
			return Key{}, err
		}
	}
	return m.update(ctx, id, func(k *Key) error {
		k.Roles = roles
		return nil
	})
}

func (m *Manager) update(ctx context.Context, id string, fn func(*Key) error) (Key, error) {
	key, digest, err := m.getWithDigest(ctx, id)
	if err != nil {
		return Key{}, err
	}
	if err := fn(&key); err != nil {
		return Key{}, err
	}
	key.UpdatedAt = m.now().UTC()

	data, err := json.Marshal(key)
	if err != nil {
		return Key{}, err
	}
	// A concurrent Revoke wins: the record is only rewritten while it still exists.
	if err := m.store.Replace(ctx, keyPrefix+digest, data, 0); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Key{}, errors.Join(ErrKeyNotFound, err)
		}
		return Key{}, err
	}

	m.logger.InfoContext(ctx, "api key updated", logger.KeyID(id))
	return key, nil
}

func (m *Manager) getWithDigest(ctx context.Context, id string) (Key, string, error) {
	if id == "" {
		return Key{}, "", errors.Join(ErrKeyNotFound, store.ErrNotFound)
	}
	raw, err := m.store.Get(ctx, idPrefix+id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Key{}, "", errors.Join(ErrKeyNotFound, err)
		}
		return Key{}, "", err
	}
	digest := string(raw)

	key, err := m.load(ctx, digest)
	if err != nil {
		return Key{}, "", err
	}
	return key, digest, nil
}

func (m *Manager) load(ctx context.Context, digest string) (Key, error) {
	data, err := m.store.Get(ctx, keyPrefix+digest)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Key{}, errors.Join(ErrKeyNotFound, err)
		}
		return Key{}, err
	}

	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return Key{}, fmt.Errorf("%w: decode key: %w", ErrInvalidKey, err)
	}
	return key, nil
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func allowedOrNil(l clientip.AllowList) []string {
	if len(l) == 0 {
		return nil
	}
	return l.Strings()
}
