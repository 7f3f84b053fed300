package definition

import (
	"fmt"
	"sort"
	"strings"
)

// OrderSteps returns the steps in a deterministic topological order over the
// declared dependencies plus the implicit input_node edges. Ties break
// lexicographically by step name.
func OrderSteps(def Definition) ([]Step, error) {
	stepMap := make(map[string]Step, len(def.Steps))
	for _, step := range def.Steps {
		stepMap[step.Name] = step
	}

	inDegree := make(map[string]int, len(stepMap))
	adj := make(map[string][]string, len(stepMap))
	for name := range stepMap {
		inDegree[name] = 0
	}
	addEdge := func(from, to string) {
		adj[from] = append(adj[from], to)
		inDegree[to]++
	}
	for _, dep := range def.Dependencies {
		addEdge(dep.From, dep.To)
	}
	for _, step := range def.Steps {
		if step.Streaming == nil {
			continue
		}
		if node := strings.TrimSpace(step.Streaming.InputNode); node != "" {
			addEdge(node, step.Name)
		}
	}

	ready := make([]string, 0, len(stepMap))
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]Step, 0, len(stepMap))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, stepMap[name])
		for _, neighbor := range adj[name] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				ready = append(ready, neighbor)
				sort.Strings(ready)
			}
		}
	}

	if len(ordered) != len(stepMap) {
		return nil, fmt.Errorf("dependency graph contains a cycle")
	}
	return ordered, nil
}
