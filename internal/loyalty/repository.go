package loyalty

import (
	"context"
	"database/sql"

	"watchshop-be/internal/db"

	"github.com/go-faster/errors"
)

type Repository interface {
	GetPoints(ctx context.Context, userID int64) (int, error)
	// LockPoints reads the balance and holds the user row lock until tx ends.
	LockPoints(ctx context.Context, tx *sql.Tx, userID int64) (int, error)
	DeductPointsTx(ctx context.Context, tx *sql.Tx, userID int64, points int) error
	AddPointsTx(ctx context.Context, tx *sql.Tx, userID int64, points int) error
	InsertHistoryTx(ctx context.Context, tx *sql.Tx, entry *HistoryEntry) error
	History(ctx context.Context, userID int64) ([]*HistoryEntry, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) getPoints(ctx context.Context, q db.Querier, userID int64, lock bool) (int, error) {
	query := `SELECT loyalty_points FROM users WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var points int
	err := q.QueryRowContext(ctx, query, userID).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, errors.Wrapf(err, "get loyalty points of user %d", userID)
	}
	return points, nil
}

func (r *repository) GetPoints(ctx context.Context, userID int64) (int, error) {
	return r.getPoints(ctx, r.db, userID, false)
}

func (r *repository) LockPoints(ctx context.Context, tx *sql.Tx, userID int64) (int, error) {
	return r.getPoints(ctx, tx, userID, true)
}

// DeductPointsTx guards the decrement in SQL so the balance never goes
// negative even without the row lock.
func (r *repository) DeductPointsTx(ctx context.Context, tx *sql.Tx, userID int64, points int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET loyalty_points = loyalty_points - $1
		WHERE id = $2 AND loyalty_points >= $1
	`, points, userID)
	if err != nil {
		return errors.Wrap(err, "deduct loyalty points")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

func (r *repository) AddPointsTx(ctx context.Context, tx *sql.Tx, userID int64, points int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET loyalty_points = loyalty_points + $1 WHERE id = $2`, points, userID)
	if err != nil {
		return errors.Wrap(err, "add loyalty points")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) InsertHistoryTx(ctx context.Context, tx *sql.Tx, entry *HistoryEntry) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO loyalty_history (user_id, points, type, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`,
		entry.UserID,
		entry.Points,
		entry.Type,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert loyalty history")
	}
	return nil
}

func (r *repository) History(ctx context.Context, userID int64) ([]*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, points, type, description, created_at
		FROM loyalty_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list loyalty history")
	}
	defer rows.Close()

	history := []*HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.Points, &h.Type, &h.Description, &h.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan loyalty history")
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}
