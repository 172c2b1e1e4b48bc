package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
)

// Goqu wraps a connection pool with the mysql dialect.
func Goqu(conn *sql.DB) *goqu.Database {
	return goqu.New("mysql", conn)
}

// RunInTx runs fn in a transaction: COMMIT when fn returns nil, ROLLBACK
// otherwise (including on panic, which is re-raised).
func RunInTx(ctx context.Context, gdb *goqu.Database, opts *sql.TxOptions, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := gdb.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
