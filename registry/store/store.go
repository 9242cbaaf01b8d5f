// Package store is the gateway to the relational document store. It
// executes compiled search queries, loads ingested documents via upsert,
// and owns connection pooling through bun over the Postgres driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	queryx "github.com/tanpawarit/fedreg-agent/registry/query"
)

type Config struct {
	Host     string        `envconfig:"HOST" split_words:"true" default:"localhost"`
	Port     int           `envconfig:"PORT" split_words:"true" default:"5432"`
	User     string        `envconfig:"USER" split_words:"true" required:"true"`
	Password string        `envconfig:"PASSWORD" split_words:"true"`
	Name     string        `envconfig:"NAME" split_words:"true" required:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Store struct {
	db *bun.DB
}

// New opens a pooled connection to the document store. Individual queries
// check a connection out of the pool and return it on every exit path;
// nothing holds a connection across calls.
func New(cfg Config) (*Store, error) {
	user := strings.TrimSpace(cfg.User)
	if user == "" {
		return nil, fmt.Errorf("store: database user is required")
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("store: database name is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", strings.TrimSpace(cfg.Host), cfg.Port)),
		pgdriver.WithUser(user),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(name),
		pgdriver.WithInsecure(true),
		pgdriver.WithTimeout(cfg.Timeout),
		pgdriver.WithApplicationName("fedreg-agent"),
	)

	sqldb := sql.OpenDB(connector)
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the documents table and its publication-date index
// when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Document)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}

	if _, err := s.db.NewCreateIndex().
		Model((*Document)(nil)).
		Index("documents_publication_date_idx").
		Column("publication_date").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create publication_date index: %w", err)
	}

	return nil
}

// Search executes a compiled query and returns the matching documents with
// normalized dates and parsed agency lists. An empty result is a valid
// outcome, distinct from a query failure.
func (s *Store) Search(ctx context.Context, c queryx.Compiled) ([]SearchHit, error) {
	sqlText, args := c.SQL()

	var rows []documentRow
	if err := s.db.NewRaw(sqlText, args...).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("execute search query: %w", err)
	}

	hits := make([]SearchHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, row.toHit())
	}
	return hits, nil
}

// Upsert inserts the given documents, updating existing rows in place when
// the document number already exists. Re-ingesting the same document twice
// therefore updates rather than duplicates it. Returns the number of rows
// written.
func (s *Store) Upsert(ctx context.Context, docs []Document) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := s.db.NewInsert().
		Model(&docs).
		On("CONFLICT (document_number) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("type = EXCLUDED.type").
		Set("abstract = EXCLUDED.abstract").
		Set("publication_date = EXCLUDED.publication_date").
		Set("agencies = EXCLUDED.agencies").
		Set("document_url = EXCLUDED.document_url").
		Set("pdf_url = EXCLUDED.pdf_url").
		Set("raw_text_url = EXCLUDED.raw_text_url").
		Set("president = EXCLUDED.president").
		Set("executive_order_number = EXCLUDED.executive_order_number").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert documents: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
