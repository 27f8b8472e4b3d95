package graph

import (
	"context"
	"sync"

	"github.com/veridoc/veridoc/internal/model"
)

// MemoryStore is an in-process Store for tests and for running without a
// Neo4j instance.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]model.Proposition
	edges map[string][]edge // keyed by from-ID, directed
}

type edge struct {
	to      string
	relType string
	reason  string
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]model.Proposition),
		edges: make(map[string][]edge),
	}
}

// UpsertProposition creates or updates a proposition node
func (s *MemoryStore) UpsertProposition(ctx context.Context, p model.Proposition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[p.ID] = p
	return nil
}

// LinkContradiction records a CONTRADICTS edge
func (s *MemoryStore) LinkContradiction(ctx context.Context, fromID, toID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges[fromID] {
		if e.to == toID && e.relType == RelContradicts {
			return nil
		}
	}
	s.edges[fromID] = append(s.edges[fromID], edge{to: toID, relType: RelContradicts, reason: reason})
	return nil
}

// Contradictions returns directly linked propositions, in either direction
func (s *MemoryStore) Contradictions(ctx context.Context, propositionID string) ([]model.Contradiction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Contradiction
	for _, e := range s.edges[propositionID] {
		if e.relType != RelContradicts {
			continue
		}
		if node, ok := s.nodes[e.to]; ok {
			out = append(out, model.Contradiction{
				PropositionID: node.ID,
				Text:          node.Text,
				DocTitle:      node.DocTitle,
				Reason:        e.reason,
			})
		}
	}
	for fromID, edges := range s.edges {
		for _, e := range edges {
			if e.to != propositionID || e.relType != RelContradicts {
				continue
			}
			if node, ok := s.nodes[fromID]; ok {
				out = append(out, model.Contradiction{
					PropositionID: node.ID,
					Text:          node.Text,
					DocTitle:      node.DocTitle,
					Reason:        e.reason,
				})
			}
		}
	}
	return out, nil
}

// Walk performs a depth-first traversal following outgoing edges of relType,
// excluding the start node
func (s *MemoryStore) Walk(ctx context.Context, propositionID, relType string, maxDepth int) ([]model.Proposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type frame struct {
		id    string
		depth int
	}

	visited := map[string]bool{propositionID: true}
	var result []model.Proposition
	stack := []frame{{id: propositionID, depth: 0}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}

		edges := s.edges[current.id]
		for i := len(edges) - 1; i >= 0; i-- {
			e := edges[i]
			if e.relType != relType || visited[e.to] {
				continue
			}
			visited[e.to] = true
			if node, ok := s.nodes[e.to]; ok {
				result = append(result, node)
			}
			stack = append(stack, frame{id: e.to, depth: current.depth + 1})
		}
	}

	return result, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
