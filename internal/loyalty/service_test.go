package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"watchshop-be/internal/apperr"
	"watchshop-be/internal/coupon"
	"watchshop-be/internal/db"
	"watchshop-be/internal/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

const (
	lockQuery     = `SELECT loyalty_points FROM users WHERE id = \$1 FOR UPDATE`
	deductQuery   = `UPDATE users\s+SET loyalty_points = loyalty_points - \$1\s+WHERE id = \$2 AND loyalty_points >= \$1`
	historyInsert = `INSERT INTO loyalty_history`
	couponInsert  = `INSERT INTO coupons`
)

func newTestService(t *testing.T) (*service, sqlmock.Sqlmock, *metrics.Registry) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	reg := metrics.NewRegistry()
	svc := NewService(conn, NewRepository(conn), coupon.NewRepository(conn), reg, decimal.RequireFromString("0.01")).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc, mock, reg
}

func TestRedemptionCode(t *testing.T) {
	assert.Equal(t, "LOYALTY-123456", redemptionCode(time.UnixMilli(1700000123456)))
	assert.Equal(t, "LOYALTY-000042", redemptionCode(time.UnixMilli(1700000000042)))
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("Balance 150 redeem 100", func(t *testing.T) {
		svc, mock, reg := newTestService(t)
		code := redemptionCode(fixedNow)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectExec(deductQuery).WithArgs(100, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).
			WithArgs(1, -100, "redeemed", "Redeemed for coupon "+code).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, fixedNow))
		mock.ExpectQuery(couponInsert).
			WithArgs(code, "fixed", decimal.NewFromInt(100), nil, nil, 1, fixedNow.Add(30*24*time.Hour), true).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
		mock.ExpectCommit()

		r, err := svc.Redeem(ctx, 1, 100)
		require.NoError(t, err)
		assert.Equal(t, code, r.CouponCode)
		assert.True(t, r.Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, fixedNow.Add(RedemptionValidity), r.ValidUntil)
		assert.Equal(t, uint64(1), reg.Counter(metrics.LoyaltyRedemptions).Load())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Below minimum", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		for _, points := range []int{0, 1, 99, -500} {
			_, err := svc.Redeem(ctx, 1, points)
			assert.ErrorIs(t, err, ErrBelowMinimum)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("More than balance", func(t *testing.T) {
		svc, mock, reg := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectRollback()

		_, err := svc.Redeem(ctx, 1, 200)
		assert.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Equal(t, uint64(0), reg.Counter(metrics.LoyaltyRedemptions).Load())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown user", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}))
		mock.ExpectRollback()

		_, err := svc.Redeem(ctx, 42, 100)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Coupon insert failure rolls back", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectExec(deductQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, fixedNow))
		mock.ExpectQuery(couponInsert).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := svc.Redeem(ctx, 1, 100)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Code collision", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectExec(deductQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, fixedNow))
		mock.ExpectQuery(couponInsert).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := svc.Redeem(ctx, 1, 100)
		assert.ErrorIs(t, err, ErrCouponCollision)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("History insert failure rolls back", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectExec(deductQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).WillReturnError(errors.New("constraint"))
		mock.ExpectRollback()

		_, err := svc.Redeem(ctx, 1, 100)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit failure", func(t *testing.T) {
		svc, mock, reg := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
		mock.ExpectExec(deductQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, fixedNow))
		mock.ExpectQuery(couponInsert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := svc.Redeem(ctx, 1, 100)
		assert.ErrorIs(t, err, db.ErrCommitFailed)
		assert.Equal(t, apperr.KindTransaction, apperr.KindOf(err))
		assert.Equal(t, uint64(0), reg.Counter(metrics.LoyaltyRedemptions).Load())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectQuery(`SELECT loyalty_points FROM users WHERE id = \$1`).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(50))
		mock.ExpectQuery(`(?s)SELECT .* FROM loyalty_history\s+WHERE user_id = \$1\s+ORDER BY created_at DESC`).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "points", "type", "description", "created_at"}).
				AddRow(2, 1, -100, "redeemed", "Redeemed for coupon LOYALTY-000001", fixedNow).
				AddRow(1, 1, 150, "earned", "Earned from order #3", fixedNow.Add(-time.Hour)))

		b, err := svc.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 50, b.Points)
		require.Len(t, b.History, 2)
		assert.Equal(t, HistoryRedeemed, b.History[0].Type)
		assert.Equal(t, -100, b.History[0].Points)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown user", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectQuery(`SELECT loyalty_points FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}))

		_, err := svc.GetBalance(ctx, 2)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Invalid id", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.GetBalance(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidUser)
	})
}

func TestService_EarnTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Floors points", func(t *testing.T) {
		svc, mock, reg := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET loyalty_points = loyalty_points \+ \$1 WHERE id = \$2`).
			WithArgs(12, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(historyInsert).
			WithArgs(7, 12, "earned", "Earned from order #3").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, fixedNow))
		mock.ExpectCommit()

		var earned int
		err := db.WithTx(ctx, svc.db, func(tx *sql.Tx) error {
			var err error
			earned, err = svc.EarnTx(ctx, tx, 7, 3, decimal.RequireFromString("1234.56"))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 12, earned)
		assert.Equal(t, uint64(12), reg.Counter(metrics.LoyaltyPointsEarned).Load())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Small order earns nothing", func(t *testing.T) {
		svc, mock, _ := newTestService(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := db.WithTx(ctx, svc.db, func(tx *sql.Tx) error {
			earned, err := svc.EarnTx(ctx, tx, 7, 3, decimal.RequireFromString("99.99"))
			assert.Equal(t, 0, earned)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
