package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

const (
	eventColumns = "uid, ts, action, scope, source, target_uid, owner, hostname, duration, value, attributes"
	keyColumns   = "action_key, scope_key, target_key"
)

// Trail stores audit events in a table. It implements audit.BatchTrail.
//
// Every insert also stores scope, target and action folded with
// audit.FoldKey, so all predicates of a query run in SQL with the same
// Unicode folding as every other trail. Search re-applies the query in
// process as a final check.
type Trail struct {
	db    DB
	table string
}

// NewTrail returns a trail over the default audit events table.
func NewTrail(db DB) *Trail {
	return &Trail{db: db, table: mustTable(AuditEventsTable)}
}

func (t *Trail) Log(ctx context.Context, e audit.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	args, err := eventArgs(e)
	if err != nil {
		return err
	}
	if _, err := t.db.Exec(ctx, t.insertSQL(), args...); err != nil {
		return t.fail("log", err)
	}
	return nil
}

// LogBatch sends every insert in one round trip. pgx runs a batch in an
// implicit transaction, so either all events are stored or none.
func (t *Trail) LogBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	stmt := t.insertSQL()
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		args, err := eventArgs(e)
		if err != nil {
			return err
		}
		b.Queue(stmt, args...)
	}
	if err := t.db.SendBatch(ctx, b).Close(); err != nil {
		return t.fail("log batch", err)
	}
	return nil
}

func (t *Trail) Search(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	events, err := t.scan(ctx, q)
	if err != nil {
		return nil, err
	}
	return q.Filter(events), nil
}

func (t *Trail) Count(ctx context.Context, q audit.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	where, args := conditions(q)
	var n int64
	if err := t.db.QueryRow(ctx, "SELECT count(*) FROM "+t.table+where, args...).Scan(&n); err != nil {
		return 0, t.fail("count", err)
	}
	return n, nil
}

func (t *Trail) Purge(ctx context.Context, q audit.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	where, args := conditions(q)
	if _, err := t.db.Exec(ctx, "DELETE FROM "+t.table+where, args...); err != nil {
		return t.fail("purge", err)
	}
	return nil
}

// CreateSchema creates the events table when migrations have not been applied.
func (t *Trail) CreateSchema(ctx context.Context) error {
	_, err := t.db.Exec(ctx, "CREATE TABLE IF NOT EXISTS "+t.table+` (
		seq        BIGSERIAL PRIMARY KEY,
		uid        TEXT NOT NULL UNIQUE,
		ts         BIGINT NOT NULL,
		action     TEXT NOT NULL,
		scope      TEXT NOT NULL,
		source     TEXT NOT NULL,
		target_uid TEXT NOT NULL DEFAULT '',
		owner      TEXT NOT NULL DEFAULT '',
		hostname   TEXT NOT NULL DEFAULT '',
		duration   BIGINT NOT NULL DEFAULT 0,
		value      TEXT NOT NULL DEFAULT '',
		attributes JSONB,
		action_key TEXT NOT NULL DEFAULT '',
		scope_key  TEXT NOT NULL DEFAULT '',
		target_key TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return t.fail("create schema", err)
	}
	return nil
}

func (t *Trail) scan(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	where, args := conditions(q)
	sql := "SELECT " + eventColumns + " FROM " + t.table + where + " ORDER BY seq"
	if q.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(q.Limit)
	}
	rows, err := t.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, t.fail("search", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e     audit.Event
			attrs []byte
		)
		err := rows.Scan(&e.UID, &e.Timestamp, &e.Action, &e.Scope, &e.Source, &e.TargetUID,
			&e.Owner, &e.Hostname, &e.Duration, &e.Value, &attrs)
		if err != nil {
			return nil, t.fail("search", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, t.fail("decode attributes", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, t.fail("search", err)
	}
	return out, nil
}

func (t *Trail) insertSQL() string {
	return "INSERT INTO " + t.table + " (" + eventColumns + ", " + keyColumns + ") " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)"
}

func (t *Trail) fail(op string, err error) error {
	return repository.Unavailable(fmt.Errorf("pgstore: %s %s: %w", op, t.table, err))
}

// conditions renders the inclusive window of q and its folded scope,
// target and action predicates as a WHERE clause.
func conditions(q audit.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}
	if q.From != nil {
		add("ts >=", *q.From)
	}
	if q.To != nil {
		add("ts <=", *q.To)
	}
	if q.Scope != "" {
		add("scope_key =", audit.FoldKey(string(q.Scope)))
	}
	if q.TargetUID != "" {
		add("target_key =", audit.FoldKey(q.TargetUID))
	}
	if q.Action != "" {
		add("action_key =", audit.FoldKey(string(q.Action)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func eventArgs(e audit.Event) ([]any, error) {
	var attrs []byte
	if len(e.Attributes) > 0 {
		var err error
		if attrs, err = json.Marshal(e.Attributes); err != nil {
			return nil, fmt.Errorf("pgstore: encode attributes of %s: %w", e.UID, err)
		}
	}
	return []any{
		e.UID, e.Timestamp, string(e.Action), string(e.Scope), string(e.Source), e.TargetUID,
		e.Owner, e.Hostname, e.Duration, e.Value, attrs,
		audit.FoldKey(string(e.Action)), audit.FoldKey(string(e.Scope)), audit.FoldKey(e.TargetUID),
	}, nil
}
