package pgstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the package.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// tableName validates name for interpolation into SQL and quotes it.
func tableName(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("pgstore: invalid table name %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func mustTable(name string) string {
	t, err := tableName(name)
	if err != nil {
		panic(err)
	}
	return t
}
