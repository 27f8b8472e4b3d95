// Package graph stores propositions and their contradiction links in Neo4j.
package graph

import (
	"context"

	"github.com/veridoc/veridoc/internal/model"
)

// RelContradicts is the relationship type linking conflicting propositions
const RelContradicts = "CONTRADICTS"

// Store is the knowledge-graph surface the logical analyzer needs. Backed by
// Neo4j in production; tests use an in-memory fake.
type Store interface {
	// UpsertProposition creates or updates a proposition node
	UpsertProposition(ctx context.Context, p model.Proposition) error

	// LinkContradiction records a CONTRADICTS relationship between two propositions
	LinkContradiction(ctx context.Context, fromID, toID, reason string) error

	// Contradictions returns propositions directly linked to the given one
	Contradictions(ctx context.Context, propositionID string) ([]model.Contradiction, error)

	// Walk performs a depth-first traversal from a proposition, following
	// relationships of relType up to maxDepth hops, and returns the visited
	// propositions excluding the start node
	Walk(ctx context.Context, propositionID, relType string, maxDepth int) ([]model.Proposition, error)

	// Close releases the underlying connection
	Close(ctx context.Context) error
}
