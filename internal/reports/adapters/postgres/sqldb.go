package postgres

import (
	"context"
	"database/sql"
)

// NewSQLDB adapts *sql.DB to DB. *sql.Rows already satisfies RowScanner;
// only the QueryContext return type differs.
func NewSQLDB(db *sql.DB) DB {
	return readerDB{db: db}
}

type readerDB struct {
	db *sql.DB
}

var _ RowScanner = (*sql.Rows)(nil)

func (r readerDB) QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
