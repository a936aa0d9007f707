// Package postgres provides the Postgres-backed record store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/permitwatch/permit-crawler/internal/permit"
	"github.com/permitwatch/permit-crawler/internal/store"
)

// uniqueViolation is the SQLSTATE Postgres raises when the conditional
// insert loses the claim race.
const uniqueViolation = "23505"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for permit rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// RecordStore implements store.RecordStore on a pgx connection pool.
//
// Expected schema:
//
//	CREATE TABLE permits (
//		rsn           BIGINT PRIMARY KEY,
//		scrape_status TEXT NOT NULL,
//		bot_status    TEXT NOT NULL DEFAULT 'nothing_to_tweet',
//		scrape_date   TIMESTAMPTZ NOT NULL,
//		fields        JSONB NOT NULL DEFAULT '{}'::jsonb
//	);
type RecordStore struct {
	pool  pgxPool
	table string
}

// New creates a Postgres-backed RecordStore using the provided config.
func New(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newWithPool(pool, cfg.Table)
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing with pgxmock).
func NewWithPool(pool pgxPool, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newWithPool(pool, table)
}

func newWithPool(pool pgxPool, table string) (*RecordStore, error) {
	if table == "" {
		table = "permits"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Claim conditionally inserts an in_progress row for rsn. The primary key
// on rsn makes this the at-most-once claim: the loser of a concurrent race
// sees a unique violation and gets store.ErrAlreadyClaimed.
func (s *RecordStore) Claim(ctx context.Context, rsn int64) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (rsn, scrape_status, scrape_date) VALUES ($1, $2, $3)`,
		s.table,
	)
	_, err := s.pool.Exec(ctx, query, rsn, permit.ScrapeInProgress, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrAlreadyClaimed
		}
		return fmt.Errorf("claim rsn %d: %w", rsn, err)
	}
	return nil
}

// MaxRSN returns the largest RSN ever claimed.
func (s *RecordStore) MaxRSN(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT rsn FROM %s ORDER BY rsn DESC LIMIT 1`, s.table)
	return s.scanOneRSN(ctx, query)
}

// LatestCaptured returns the largest RSN with scrape status captured.
func (s *RecordStore) LatestCaptured(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(
		`SELECT rsn FROM %s WHERE scrape_status = $1 ORDER BY rsn DESC LIMIT 1`,
		s.table,
	)
	return s.scanOneRSN(ctx, query, permit.ScrapeCaptured)
}

func (s *RecordStore) scanOneRSN(ctx context.Context, query string, args ...any) (int64, error) {
	var rsn int64
	err := s.pool.QueryRow(ctx, query, args...).Scan(&rsn)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query rsn: %w", err)
	}
	return rsn, nil
}

// RecentNotFound returns up to limit not_found RSNs, most recent first.
func (s *RecordStore) RecentNotFound(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 || limit > store.BackfillQueryLimit {
		return nil, fmt.Errorf("limit %d out of range 1..%d", limit, store.BackfillQueryLimit)
	}
	query := fmt.Sprintf(
		`SELECT rsn FROM %s WHERE scrape_status = $1 ORDER BY rsn DESC LIMIT $2`,
		s.table,
	)
	rows, err := s.pool.Query(ctx, query, permit.ScrapeNotFound, limit)
	if err != nil {
		return nil, fmt.Errorf("query not_found rsns: %w", err)
	}
	defer rows.Close()

	var rsns []int64
	for rows.Next() {
		var rsn int64
		if err := rows.Scan(&rsn); err != nil {
			return nil, fmt.Errorf("scan rsn: %w", err)
		}
		rsns = append(rsns, rsn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rsns: %w", err)
	}
	return rsns, nil
}

// Upsert writes a record keyed by RSN, overwriting any earlier outcome.
func (s *RecordStore) Upsert(ctx context.Context, rec permit.Record) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (rsn, scrape_status, bot_status, scrape_date, fields)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (rsn) DO UPDATE SET
	scrape_status = EXCLUDED.scrape_status,
	bot_status = EXCLUDED.bot_status,
	scrape_date = EXCLUDED.scrape_date,
	fields = EXCLUDED.fields`, s.table)

	botStatus := rec.BotStatus
	if botStatus == "" {
		botStatus = permit.BotNothingToPost
	}
	if _, err := s.pool.Exec(ctx, query, rec.RSN, rec.ScrapeStatus, botStatus, rec.ScrapeDate, fieldsJSON); err != nil {
		return fmt.Errorf("upsert rsn %d: %w", rec.RSN, err)
	}
	return nil
}

// ReadyToPost returns records flagged ready_to_tweet, most recent first.
func (s *RecordStore) ReadyToPost(ctx context.Context) ([]permit.Record, error) {
	query := fmt.Sprintf(`
SELECT rsn, scrape_status, bot_status, scrape_date, fields
FROM %s WHERE bot_status = $1 ORDER BY rsn DESC`, s.table)

	rows, err := s.pool.Query(ctx, query, permit.BotReady)
	if err != nil {
		return nil, fmt.Errorf("query ready records: %w", err)
	}
	defer rows.Close()

	var records []permit.Record
	for rows.Next() {
		var (
			rec        permit.Record
			fieldsJSON []byte
		)
		if err := rows.Scan(&rec.RSN, &rec.ScrapeStatus, &rec.BotStatus, &rec.ScrapeDate, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields for rsn %d: %w", rec.RSN, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// SetBotStatus overwrites the publication status of one record.
func (s *RecordStore) SetBotStatus(ctx context.Context, rsn int64, status permit.BotStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET bot_status = $2 WHERE rsn = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, rsn, status)
	if err != nil {
		return fmt.Errorf("set bot status for rsn %d: %w", rsn, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
