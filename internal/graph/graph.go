package graph

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that the `fromID` node depends on the `toID` node. An error
// is returned if either node does not exist or if the edge would create a
// self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	fromNode.deps[toID] = toNode
	toNode.dependents[fromID] = fromNode

	return nil
}

// HasNode reports whether a node with the given ID exists in the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// Nodes returns the IDs of all nodes in the graph, sorted for determinism.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns a slice of node IDs that the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	sort.Strings(deps)
	return deps, nil
}

// Dependents returns a slice of node IDs that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	dependents := make([]string, 0, len(n.dependents))
	for depID := range n.dependents {
		dependents = append(dependents, depID)
	}
	sort.Strings(dependents)
	return dependents, nil
}

// DetectCycles checks the graph for cycles. It returns one path per detected
// cycle, each written dependency-first and closed by repeating the entry node
// (e.g. ["a", "b", "a"]). An empty result means the graph is acyclic.
//
// The traversal does not stop at the first finding: every cycle reachable
// through a distinct back-edge is reported, so callers can surface all of
// them at once.
func (g *Graph) DetectCycles() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var cycles [][]string
	var stack []string

	var visit func(n *node)
	visit = func(n *node) {
		if permanent[n.id] {
			return // Already visited and known to be safe.
		}
		if temporary[n.id] {
			// The node is already in our recursion stack: extract the loop
			// from its first occurrence onward and close it.
			for i, id := range stack {
				if id == n.id {
					cycle := make([]string, 0, len(stack)-i+1)
					cycle = append(cycle, stack[i:]...)
					cycle = append(cycle, n.id)
					cycles = append(cycles, cycle)
					return
				}
			}
			return
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, depID := range sortedKeys(n.deps) {
			visit(n.deps[depID])
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
	}

	for _, id := range sortedKeys(g.nodes) {
		if !permanent[id] {
			visit(g.nodes[id])
		}
	}

	return cycles
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
