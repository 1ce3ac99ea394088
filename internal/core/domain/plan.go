package domain

import "strings"

const (
	unvisited = iota
	visiting
	visited
)

// Plan walks root's transitive prerequisites depth-first in declaration
// order and returns the order in which tasks would complete. It runs no
// actions, so unknown tasks and cycles are reported before any side effect.
func (r *Registry) Plan(root string) ([]InternedString, error) {
	start := NewInternedString(root)
	if _, ok := r.Get(start); !ok {
		return nil, Tag(ErrUnknownTask, "task", root)
	}

	order := make([]InternedString, 0, r.Len())
	state := make(map[InternedString]int)
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		state[u] = visiting
		path = append(path, u)

		task, _ := r.Get(u)
		for _, dep := range task.Prerequisites {
			switch state[dep] {
			case visiting:
				return Tag(ErrCyclicDependency, "cycle", CyclePath(path, dep))
			case visited:
				continue
			}
			if _, ok := r.Get(dep); !ok {
				return Tag(ErrUnknownTask, "task", dep.String(), "required_by", u.String())
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[u] = visited
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	if err := visit(start); err != nil {
		return nil, err
	}
	return order, nil
}

// CyclePath renders the cycle that closes when dep is reached again from
// path, e.g. "a -> b -> a".
func CyclePath(path []InternedString, dep InternedString) string {
	startIdx := 0
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return strings.Join(parts, " -> ")
}
