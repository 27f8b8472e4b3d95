package graph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/veridoc/veridoc/internal/model"
)

// Relationship types are interpolated into Cypher, so restrict them to a
// safe shape.
var relTypePattern = regexp.MustCompile(`^[A-Z_]+$`)

// Neo4jStore implements Store on a Neo4j database
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jStore connects to Neo4j and verifies connectivity
func NewNeo4jStore(ctx context.Context, cfg model.GraphConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}

	return &Neo4jStore{driver: driver}, nil
}

// Close releases the driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// UpsertProposition creates or updates a proposition node keyed by ID
func (s *Neo4jStore) UpsertProposition(ctx context.Context, p model.Proposition) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MERGE (p:Proposition {id: $id})
			SET p.text = $text, p.doc_title = $docTitle, p.chunk_text = $chunkText
		`, map[string]any{
			"id":        p.ID,
			"text":      p.Text,
			"docTitle":  p.DocTitle,
			"chunkText": p.ChunkText,
		})
	})
	if err != nil {
		return fmt.Errorf("upsert proposition %s: %w", p.ID, err)
	}
	return nil
}

// LinkContradiction records a CONTRADICTS relationship between two propositions
func (s *Neo4jStore) LinkContradiction(ctx context.Context, fromID, toID, reason string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (a:Proposition {id: $from})
			MATCH (b:Proposition {id: $to})
			MERGE (a)-[r:CONTRADICTS]->(b)
			SET r.reason = $reason
		`, map[string]any{
			"from":   fromID,
			"to":     toID,
			"reason": reason,
		})
	})
	if err != nil {
		return fmt.Errorf("link contradiction %s -> %s: %w", fromID, toID, err)
	}
	return nil
}

// Contradictions returns propositions directly linked to the given one,
// in either direction
func (s *Neo4jStore) Contradictions(ctx context.Context, propositionID string) ([]model.Contradiction, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (p:Proposition {id: $id})-[r:CONTRADICTS]-(q:Proposition)
			RETURN q.id AS id, q.text AS text, q.doc_title AS docTitle, r.reason AS reason
		`, map[string]any{"id": propositionID})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query contradictions for %s: %w", propositionID, err)
	}

	var out []model.Contradiction
	for _, record := range records.([]*neo4j.Record) {
		out = append(out, model.Contradiction{
			PropositionID: stringValue(record, "id"),
			Text:          stringValue(record, "text"),
			DocTitle:      stringValue(record, "docTitle"),
			Reason:        stringValue(record, "reason"),
		})
	}
	return out, nil
}

// Walk performs a depth-first traversal from a proposition, following
// relationships of relType. The traversal itself runs client-side over
// single-hop queries, with a visited set and a depth cutoff; the start node
// is not included in the result.
func (s *Neo4jStore) Walk(ctx context.Context, propositionID, relType string, maxDepth int) ([]model.Proposition, error) {
	if !relTypePattern.MatchString(relType) {
		return nil, fmt.Errorf("invalid relationship type: %q", relType)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

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

		neighbors, err := s.neighbors(ctx, session, current.id, relType)
		if err != nil {
			return nil, err
		}

		// Push in reverse so traversal order matches query order.
		for i := len(neighbors) - 1; i >= 0; i-- {
			n := neighbors[i]
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			result = append(result, n)
			stack = append(stack, frame{id: n.ID, depth: current.depth + 1})
		}
	}

	return result, nil
}

func (s *Neo4jStore) neighbors(ctx context.Context, session neo4j.SessionWithContext, id, relType string) ([]model.Proposition, error) {
	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, fmt.Sprintf(`
			MATCH (a:Proposition {id: $id})-[:%s]->(b:Proposition)
			RETURN b.id AS id, b.text AS text, b.doc_title AS docTitle, b.chunk_text AS chunkText
		`, relType), map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query neighbors of %s: %w", id, err)
	}

	var out []model.Proposition
	for _, record := range records.([]*neo4j.Record) {
		out = append(out, model.Proposition{
			ID:        stringValue(record, "id"),
			Text:      stringValue(record, "text"),
			DocTitle:  stringValue(record, "docTitle"),
			ChunkText: stringValue(record, "chunkText"),
		})
	}
	return out, nil
}

func stringValue(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}
