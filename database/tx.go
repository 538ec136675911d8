// Package database, transaction yönetimi.
//
// WithTx birden fazla DB operasyonunun atomik (all-or-nothing) çalışmasını
// sağlar.
//
// Transaction nedir?
// Normalde her query ayrı commit edilir. Bir event batch'i işlenirken
// middleware'ler sırayla channel, read, thread ve member satırlarına yazar;
// yarıda kalan bir batch bunların bir kısmını DB'de bırakırsa cache
// tutarsız olur.
//
// Transaction ile batch tek birimdir:
//   - fn nil döner -> COMMIT (hepsi kalıcı)
//   - fn error döner veya panic olur -> ROLLBACK (hiçbiri yazılmaz)
//
// Repository'ler ile kullanım:
// Repository'ler TxQuerier alır. *sql.DB ve *sql.Tx ikisi de bu interface'i
// karşılar, böylece aynı SQL kodu hem batch transaction'ı içinde hem de
// status endpoint'lerinin read-only sorgularında doğrudan pool üzerinde çalışır.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TxQuerier is satisfied by both *sql.DB and *sql.Tx. Store code takes it so
// the same queries run inside a batch transaction or directly on the pool
// (read-only status queries).
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction.
//
//	fn returns nil   -> COMMIT
//	fn returns error -> ROLLBACK, error returned
//	fn panics        -> ROLLBACK, panic re-raised
//
// A failed commit is reported as ErrCommit so the caller can tell "my code
// failed" apart from "the store refused the write".
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("%w: %w", ErrCommit, commitErr)
		}
	}()

	err = fn(tx)
	return
}

// ErrCommit wraps commit failures returned by WithTx.
var ErrCommit = errors.New("failed to commit transaction")
