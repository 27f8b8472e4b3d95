package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veridoc/veridoc/internal/model"
)

// PostgresStore persists documents in Postgres
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the documents table exists
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create inserts a document and returns it with ID and timestamp set
func (s *PostgresStore) Create(ctx context.Context, title, description, content string) (*model.Document, error) {
	doc := model.Document{
		Title:       title,
		Description: description,
		Content:     content,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (title, description, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, title, description, content).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return &doc, nil
}

// Get returns a document by ID
func (s *PostgresStore) Get(ctx context.Context, id int64) (*model.Document, error) {
	var doc model.Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, description, content, created_at
		FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Title, &doc.Description, &doc.Content, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document %d: %w", id, err)
	}
	return &doc, nil
}

// List returns all documents, newest first
func (s *PostgresStore) List(ctx context.Context) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, content, created_at
		FROM documents ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}
