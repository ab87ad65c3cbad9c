package rbac

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/authz/pkg/logger"
)

//go:embed roles.yaml
var defaultRolesYAML []byte

type seedDocument struct {
	Roles []Role `yaml:"roles"`
}

// DefaultRoles returns the built-in role set: guest, user, api and admin.
func DefaultRoles() []Role {
	roles, err := LoadSeed(bytes.NewReader(defaultRolesYAML))
	if err != nil {
		panic(fmt.Sprintf("rbac: embedded roles are invalid: %v", err))
	}
	return roles
}

// LoadSeed decodes a YAML document of the form:
//
//	roles:
//	  - name: viewer
//	    permissions: ["reports:read"]
//	  - name: editor
//	    permissions: ["reports:write"]
//	    parents: [viewer]
//
// The roles are validated as a closed graph.
func LoadSeed(r io.Reader) ([]Role, error) {
	var doc seedDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidSeed, err)
	}

	graph := make(map[string]Role, len(doc.Roles))
	for _, role := range doc.Roles {
		normalized, err := role.normalize()
		if err != nil {
			return nil, errors.Join(ErrInvalidSeed, err)
		}
		if _, dup := graph[normalized.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", ErrInvalidSeed, normalized.Name)
		}
		graph[normalized.Name] = normalized
	}
	if err := validateGraph(graph); err != nil {
		return nil, errors.Join(ErrInvalidSeed, err)
	}

	return sortRolesByInheritance(graph), nil
}

// LoadSeedFile reads a seed document from disk.
func LoadSeedFile(path string) ([]Role, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidSeed, err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// Seed creates the given roles, parents first. Roles that already exist are left untouched.
// It returns the number of roles created.
func Seed(ctx context.Context, m *Manager, roles []Role) (int, error) {
	graph := make(map[string]Role, len(roles))
	for _, r := range roles {
		graph[r.Name] = r
	}

	created := 0
	for _, role := range sortRolesByInheritance(graph) {
		err := m.Exists(ctx, role.Name)
		if err == nil {
			m.logger.DebugContext(ctx, "seed role already exists", logger.Role(role.Name))
			continue
		}
		if !errors.Is(err, ErrRoleNotFound) {
			return created, err
		}

		if _, err := m.CreateRole(ctx, role); err != nil {
			return created, fmt.Errorf("seed role %q: %w", role.Name, err)
		}
		created++
	}
	return created, nil
}
