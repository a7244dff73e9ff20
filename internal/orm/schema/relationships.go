package schema

import (
	"fmt"
	"sort"
	"strings"
)

// RelationshipGraph holds the foreign key dependencies between entities. An
// entity depends on the target of every to-one relationship it stores a
// foreign key for.
type RelationshipGraph struct {
	nodes map[string]*EntitySchema
	edges map[string][]string // entity -> dependencies
}

// NewRelationshipGraph creates a graph over schemas, keyed by entity name
func NewRelationshipGraph(schemas map[string]*EntitySchema) *RelationshipGraph {
	graph := &RelationshipGraph{
		nodes: schemas,
		edges: make(map[string][]string),
	}

	for _, name := range sortedKeys(schemas) {
		for _, f := range schemas[name].Fields() {
			if f.Kind != KindRelationship || f.Uselist || f.ForeignKey == "" {
				continue
			}
			// A self reference never blocks creation
			if f.Target == name {
				continue
			}
			graph.edges[name] = appendUnique(graph.edges[name], f.Target)
		}
	}

	return graph
}

// DetectCycles returns the dependency cycles found in the graph
func (g *RelationshipGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string) bool
	dfs = func(node string, path []string) bool {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				if dfs(neighbor, path) {
					return true
				}
			} else if recursionStack[neighbor] {
				for i, n := range path {
					if n == neighbor {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
				return true
			}
		}

		recursionStack[node] = false
		return false
	}

	for _, node := range sortedKeys(g.nodes) {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	return cycles
}

// TopologicalSort returns entity names in dependency order (dependencies
// first). Entities at the same depth are ordered by name.
func (g *RelationshipGraph) TopologicalSort() ([]string, error) {
	outDegree := make(map[string]int)
	for node := range g.nodes {
		for _, dep := range g.edges[node] {
			// Targets outside the graph are assumed to exist already
			if _, ok := g.nodes[dep]; ok {
				outDegree[node]++
			}
		}
	}

	reverseEdges := make(map[string][]string)
	for source, targets := range g.edges {
		for _, target := range targets {
			reverseEdges[target] = append(reverseEdges[target], source)
		}
	}

	var queue []string
	for _, node := range sortedKeys(g.nodes) {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		var ready []string
		for _, dependent := range reverseEdges[node] {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(result) != len(g.nodes) {
		if cycles := g.DetectCycles(); len(cycles) > 0 {
			return nil, fmt.Errorf("circular dependency detected:\n%s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular dependency detected")
	}

	return result, nil
}

// GetDependencies returns the direct dependencies of an entity
func (g *RelationshipGraph) GetDependencies(entity string) []string {
	deps, exists := g.edges[entity]
	if !exists {
		return []string{}
	}
	return deps
}

// GetDependents returns the entities that depend on the given entity
func (g *RelationshipGraph) GetDependents(entity string) []string {
	dependents := []string{}
	for _, node := range sortedKeys(g.nodes) {
		for _, dep := range g.edges[node] {
			if dep == entity {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// CreationOrder returns the registered schemas ordered so that every entity
// comes after the entities its foreign keys point to
func (r *Registry) CreationOrder() ([]*EntitySchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, err := NewRelationshipGraph(r.schemas).TopologicalSort()
	if err != nil {
		return nil, err
	}

	out := make([]*EntitySchema, len(order))
	for i, name := range order {
		out[i] = r.schemas[name]
	}
	return out, nil
}

func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Cycle %d: %s -> %s", i+1, strings.Join(cycle, " -> "), cycle[0])
	}
	return b.String()
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
