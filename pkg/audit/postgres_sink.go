package audit

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresMigrations returns the goose migrations creating the audit_events table.
func PostgresMigrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PgxConn is the subset of *pgxpool.Pool used by PostgresSink.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink appends events to the audit_events table.
type PostgresSink struct {
	db PgxConn
}

// NewPostgresSink creates a sink over db. Panics on nil db.
func NewPostgresSink(db PgxConn) *PostgresSink {
	if db == nil {
		panic("audit: postgres connection cannot be nil")
	}
	return &PostgresSink{db: db}
}

const insertEventSQL = `INSERT INTO audit_events
	(id, seq, ts, type, key_id, actor, action, resource_type, resource_id, outcome, reason, ip, request_id, metadata, prev_hash, hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO NOTHING`

const selectEventsSQL = `SELECT id::text, seq, ts, type, key_id, actor, action, resource_type, resource_id,
	outcome, reason, ip, request_id, metadata, prev_hash, hash FROM audit_events`

// Write implements Sink. The batch is sent in one round trip and runs as one implicit transaction.
func (s *PostgresSink) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, e := range events {
		var meta []byte
		if e.Metadata != nil {
			var err error
			if meta, err = json.Marshal(e.Metadata); err != nil {
				return err
			}
		}
		b.Queue(insertEventSQL,
			e.ID, e.Seq, e.Timestamp, e.Type, e.KeyID, e.Actor, e.Action,
			e.ResourceType, e.ResourceID, string(e.Outcome), e.Reason, e.IP, e.RequestID,
			meta, e.PrevHash, e.Hash,
		)
	}

	br := s.db.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.Join(ErrSinkUnavailable, err)
		}
	}
	if err := br.Close(); err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}

// Query implements Querier.
func (s *PostgresSink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	where, args := buildWhere(c)
	query := selectEventsSQL + where +
		fmt.Sprintf(" ORDER BY ts, seq LIMIT %d OFFSET %d", c.limit(), max(c.Offset, 0))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e       Event
			outcome string
			meta    []byte
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.Timestamp, &e.Type, &e.KeyID, &e.Actor, &e.Action,
			&e.ResourceType, &e.ResourceID, &outcome, &e.Reason, &e.IP, &e.RequestID,
			&meta, &e.PrevHash, &e.Hash); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		e.Timestamp = e.Timestamp.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrSinkUnavailable, err)
	}
	return out, nil
}

// LastHash returns the hash of the most recent event, or "" when the table is empty.
func (s *PostgresSink) LastHash(ctx context.Context) (string, error) {
	rows, err := s.db.Query(ctx, `SELECT hash FROM audit_events ORDER BY ts DESC, seq DESC LIMIT 1`)
	if err != nil {
		return "", errors.Join(ErrSinkUnavailable, err)
	}
	hash, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[string])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", errors.Join(ErrSinkUnavailable, err)
	}
	return hash, nil
}

func buildWhere(c Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !c.From.IsZero() {
		conds = append(conds, "ts >= "+arg(c.From))
	}
	if !c.To.IsZero() {
		conds = append(conds, "ts < "+arg(c.To))
	}
	if len(c.Types) > 0 {
		conds = append(conds, "type = ANY("+arg(c.Types)+")")
	}
	if c.KeyID != "" {
		conds = append(conds, "key_id = "+arg(c.KeyID))
	}
	if c.Outcome != "" {
		conds = append(conds, "outcome = "+arg(string(c.Outcome)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
