package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/pg"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Storage keeps one entity collection as JSONB documents keyed by uid.
// It implements repository.Storage.
type Storage[E entity.Entity[E]] struct {
	db    DB
	table string
	alloc func() E
}

// NewStorage returns a storage over table. alloc must return a fresh,
// non-nil value to decode documents into.
func NewStorage[E entity.Entity[E]](db DB, table string, alloc func() E) (*Storage[E], error) {
	t, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Storage[E]{db: db, table: t, alloc: alloc}, nil
}

// NewFeatureStorage returns the storage for features on the default table.
func NewFeatureStorage(db DB) *Storage[*feature.Feature] {
	return &Storage[*feature.Feature]{
		db:    db,
		table: mustTable(FeaturesTable),
		alloc: func() *feature.Feature { return &feature.Feature{} },
	}
}

// NewPropertyStorage returns the storage for properties on the default table.
func NewPropertyStorage(db DB) *Storage[*property.Property] {
	return &Storage[*property.Property]{
		db:    db,
		table: mustTable(PropertiesTable),
		alloc: func() *property.Property { return &property.Property{} },
	}
}

func (s *Storage[E]) Exists(ctx context.Context, uid string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+s.table+" WHERE uid = $1)", uid).Scan(&ok)
	if err != nil {
		return false, s.fail("exists", err)
	}
	return ok, nil
}

func (s *Storage[E]) Get(ctx context.Context, uid string) (E, error) {
	var zero E
	var doc []byte
	err := s.db.QueryRow(ctx, "SELECT doc FROM "+s.table+" WHERE uid = $1", uid).Scan(&doc)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return zero, fmt.Errorf("%w: %s", repository.ErrNotFound, uid)
		}
		return zero, s.fail("get", err)
	}
	return s.decode(doc)
}

func (s *Storage[E]) Put(ctx context.Context, e E) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("pgstore: encode %s: %w", e.GetUID(), err)
	}
	_, err = s.db.Exec(ctx,
		"INSERT INTO "+s.table+" (uid, doc, updated_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (uid) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at",
		e.GetUID(), doc)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", repository.ErrAlreadyExists, e.GetUID())
		}
		return s.fail("put", err)
	}
	return nil
}

func (s *Storage[E]) Delete(ctx context.Context, uid string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM "+s.table+" WHERE uid = $1", uid)
	if err != nil {
		return s.fail("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, uid)
	}
	return nil
}

func (s *Storage[E]) List(ctx context.Context) ([]E, error) {
	rows, err := s.db.Query(ctx, "SELECT doc FROM "+s.table+" ORDER BY uid")
	if err != nil {
		return nil, s.fail("list", err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, s.fail("list", err)
		}
		e, err := s.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list", err)
	}
	return out, nil
}

func (s *Storage[E]) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM "+s.table); err != nil {
		return s.fail("clear", err)
	}
	return nil
}

// CreateSchema creates the table when migrations have not been applied.
func (s *Storage[E]) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "CREATE TABLE IF NOT EXISTS "+s.table+` (
		uid        TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return s.fail("create schema", err)
	}
	return nil
}

func (s *Storage[E]) decode(doc []byte) (E, error) {
	e := s.alloc()
	if err := json.Unmarshal(doc, e); err != nil {
		var zero E
		return zero, repository.Unavailable(fmt.Errorf("pgstore: decode %s row: %w", s.table, err))
	}
	return e, nil
}

func (s *Storage[E]) fail(op string, err error) error {
	return repository.Unavailable(fmt.Errorf("pgstore: %s %s: %w", op, s.table, err))
}
