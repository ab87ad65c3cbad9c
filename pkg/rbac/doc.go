// Package rbac stores role definitions in a key/value store and resolves the
// effective permission set of a role through its parent chain.
//
// A role grants its declared permissions plus everything granted by its
// ancestors. Inheritance must stay acyclic and at most MaxInheritanceDepth
// levels deep; Manager validates the complete graph before every write, so a
// rejected change never reaches the store.
//
// Store layout:
//
//	role:<name>   JSON encoded Role
//	roles         set of all role names
//
// Basic usage:
//
//	s := store.NewMemory()
//	resolver := rbac.NewResolver(s, rbac.WithLogger(log))
//	roles := rbac.NewManager(s, rbac.WithResolver(resolver))
//
//	if _, err := rbac.Seed(ctx, roles, rbac.DefaultRoles()); err != nil {
//	    return err
//	}
//	_, err := roles.CreateRole(ctx, rbac.Role{
//	    Name:        "editor",
//	    Permissions: []string{"reports:write"},
//	    Parents:     []string{"guest"},
//	})
//
//	perms, err := resolver.Effective(ctx, "editor")
//	if err != nil {
//	    return err
//	}
//	perms.Allows("workflow:read") // true, inherited from guest
//
// The Resolver walks the graph iteratively with a visited set, so even a cycle
// written to the store out of band cannot make it loop. Resolution results may
// be memoized with WithCache; API keys are never cached here.
package rbac
