package toposort

import (
	"fmt"
	"sort"
)

// CycleDetectedError is returned if a cycle is detected while performing a topo sort
type CycleDetectedError struct {
	// Remaining are the nodes that could not be ordered.
	Remaining []string
}

func (e CycleDetectedError) Error() string {
	return fmt.Sprintf("detected cycle in dependency graph between %v", e.Remaining)
}

// UnknownDependencyError is returned when a node depends on a node that is not part of the graph.
type UnknownDependencyError struct {
	Node       string
	Dependency string
}

func (e UnknownDependencyError) Error() string {
	return fmt.Sprintf("%s depends on unknown node %s", e.Node, e.Dependency)
}

// dependents inverts the dependency map and counts the unmet dependencies of every node.
func dependents(deps map[string][]string) (map[string][]string, map[string]int, error) {
	inverted := make(map[string][]string, len(deps))
	unmet := make(map[string]int, len(deps))
	for node, nodeDeps := range deps {
		seen := map[string]bool{}
		for _, dep := range nodeDeps {
			if _, ok := deps[dep]; !ok {
				return nil, nil, UnknownDependencyError{Node: node, Dependency: dep}
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			inverted[dep] = append(inverted[dep], node)
			unmet[node]++
		}
	}
	return inverted, unmet, nil
}

// Sort takes a map from node to the nodes it depends on and returns the nodes in waves: every
// node comes in the first wave after all of its dependencies. Nodes within a wave are sorted.
func Sort(deps map[string][]string) ([][]string, error) {
	inverted, unmet, err := dependents(deps)
	if err != nil {
		return [][]string{}, err
	}

	ready := []string{}
	for node := range deps {
		if unmet[node] == 0 {
			ready = append(ready, node)
		}
	}

	waves := [][]string{}
	ordered := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		waves = append(waves, ready)
		ordered += len(ready)

		next := []string{}
		for _, node := range ready {
			for _, dependent := range inverted[node] {
				unmet[dependent]--
				if unmet[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		ready = next
	}

	if ordered != len(deps) {
		remaining := []string{}
		for node, n := range unmet {
			if n > 0 {
				remaining = append(remaining, node)
			}
		}
		sort.Strings(remaining)
		return [][]string{}, CycleDetectedError{Remaining: remaining}
	}
	return waves, nil
}
