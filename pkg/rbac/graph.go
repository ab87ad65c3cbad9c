package rbac

import (
	"fmt"
	"slices"
	"strings"
)

// validateGraph checks the whole role graph: every parent exists, there are no
// cycles, and no chain is deeper than MaxInheritanceDepth.
func validateGraph(roles map[string]Role) error {
	const (
		white = iota // unvisited
		grey         // on the current DFS path
		black        // fully explored
	)
	color := make(map[string]int, len(roles))
	path := make([]string, 0, MaxInheritanceDepth+1)

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = grey
		path = append(path, name)
		defer func() { path = path[:len(path)-1] }()

		for _, parent := range roles[name].Parents {
			if _, ok := roles[parent]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrParentNotFound, name, parent)
			}
			switch color[parent] {
			case grey:
				cycle := append(slices.Clone(path[slices.Index(path, parent):]), parent)
				return fmt.Errorf("%w: %s", ErrCircularInheritance, strings.Join(cycle, " -> "))
			case white:
				if err := visit(parent); err != nil {
					return err
				}
			}
		}

		color[name] = black
		return nil
	}

	for _, name := range sortedNames(roles) {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	depths := roleDepths(roles)
	for _, name := range sortedNames(roles) {
		if depths[name] > MaxInheritanceDepth {
			return fmt.Errorf("%w: role %q has depth %d, max %d",
				ErrInheritanceTooDeep, name, depths[name], MaxInheritanceDepth)
		}
	}

	return nil
}

// roleDepths computes the inheritance depth of every role: base roles have depth 0.
// A cycle contributes depth 0 at the point it closes, so the walk always terminates.
func roleDepths(roles map[string]Role) map[string]int {
	depths := make(map[string]int, len(roles))
	inProcess := make(map[string]bool)

	var depth func(name string) int
	depth = func(name string) int {
		if d, ok := depths[name]; ok {
			return d
		}
		if inProcess[name] {
			return 0
		}
		inProcess[name] = true

		d := 0
		for _, parent := range roles[name].Parents {
			if _, ok := roles[parent]; !ok {
				continue
			}
			d = max(d, depth(parent)+1)
		}
		depths[name] = d
		inProcess[name] = false
		return d
	}

	for name := range roles {
		depth(name)
	}
	return depths
}

// sortRolesByInheritance returns roles ordered base roles first, then by name.
func sortRolesByInheritance(roles map[string]Role) []Role {
	depths := roleDepths(roles)
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Role) int {
		if d := depths[a.Name] - depths[b.Name]; d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// dependents returns the names of roles that list name as a direct parent.
func dependents(roles map[string]Role, name string) []string {
	var out []string
	for _, r := range roles {
		if slices.Contains(r.Parents, name) {
			out = append(out, r.Name)
		}
	}
	slices.Sort(out)
	return out
}

func sortedNames(roles map[string]Role) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
