package db

import (
	"context"
	"database/sql"

	"watchshop-be/internal/apperr"
	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var ErrCommitFailed = apperr.Transaction("transaction commit failed")

// Querier is the subset of *sql.DB and *sql.Tx used by repositories, so
// the same query helpers run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. Any error from fn, a panic, or a
// failed commit leaves nothing persisted.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	log := logger.FromCtx(ctx)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return errors.Wrap(err, "begin transaction")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
		} else {
			log.Debug("transaction rolled back")
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return errors.Wrap(ErrCommitFailed, err.Error())
	}

	committed = true
	return nil
}
