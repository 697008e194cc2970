// Package history persists council run records in Postgres for the history
// and stats commands. The full merged result is stored as JSON alongside
// lightweight columns for querying.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/zen-systems/quorum/pkg/schema"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("research session not found")

// Record is one stored council run.
type Record struct {
	bun.BaseModel `bun:"table:research_sessions,alias:rs"`

	ID               string    `bun:"id,pk"`
	Query            string    `bun:"query,notnull"`
	Domain           string    `bun:"domain,notnull"`
	Timestamp        time.Time `bun:"timestamp,notnull"`
	TotalAgents      int       `bun:"total_agents,notnull"`
	SuccessfulAgents int       `bun:"successful_agents,notnull"`
	FailedAgents     string    `bun:"failed_agents"`
	Strategy         string    `bun:"strategy"`
	Fallback         bool      `bun:"heuristic_fallback"`
	TotalTokens      int       `bun:"total_tokens"`
	TotalCostUSD     float64   `bun:"total_cost_usd"`
	Result           []byte    `bun:"result,type:jsonb"`
}

// NewRecord builds a Record from a merged result.
func NewRecord(res *schema.MergedResult) (*Record, error) {
	full, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	failed, err := json.Marshal(res.FailedAgents)
	if err != nil {
		return nil, fmt.Errorf("marshal failed agents: %w", err)
	}

	return &Record{
		ID:               res.ID,
		Query:            res.Query,
		Domain:           string(res.Domain),
		Timestamp:        res.Timestamp,
		TotalAgents:      res.TotalAgents,
		SuccessfulAgents: res.SuccessfulAgents,
		FailedAgents:     string(failed),
		Strategy:         string(res.Strategy),
		Fallback:         res.HeuristicFallback,
		TotalTokens:      res.Usage.TotalTokens,
		TotalCostUSD:     res.CostUSD,
		Result:           full,
	}, nil
}

// MergedResult unmarshals the stored result payload.
func (r *Record) MergedResult() (*schema.MergedResult, error) {
	var res schema.MergedResult
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}

// Stats are aggregate totals over all stored sessions.
type Stats struct {
	Sessions     int     `bun:"sessions"`
	TotalTokens  int64   `bun:"total_tokens"`
	TotalCostUSD float64 `bun:"total_cost_usd"`
}

// Store wraps the bun connection.
type Store struct {
	db *bun.DB
}

// Open connects to Postgres using the given DSN.
func Open(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}
}

// Init creates the sessions table if missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Save inserts one run record.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	_, err := s.db.NewInsert().Model(rec).Exec(ctx)
	return err
}

// List returns stored sessions newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	err := s.db.NewSelect().
		Model(&records).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	return records, err
}

// Get returns a single session by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	rec := new(Record)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Stats returns aggregate totals across all sessions.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := new(Stats)
	err := s.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("count(*) AS sessions").
		ColumnExpr("coalesce(sum(total_tokens), 0) AS total_tokens").
		ColumnExpr("coalesce(sum(total_cost_usd), 0) AS total_cost_usd").
		Scan(ctx, stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
