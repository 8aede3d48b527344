package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwallet/internal/models"
	"tripwallet/internal/repositories"
	"tripwallet/internal/testutil"
)

func newTx(userID, txType, sourceID, direction string, amount int64, at time.Time) *models.WalletTransaction {
	return &models.WalletTransaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Direction: direction,
		Amount:    amount,
		Type:      txType,
		Status:    models.TxStatusPosted,
		SourceID:  sourceID,
		Metadata:  models.TxMetadata{SourceID: sourceID},
		CreatedAt: at,
	}
}

func TestIncrementBalanceUpserts(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))

	_, err := repo.GetBalance(ctx, "u-1")
	assert.ErrorIs(t, err, repositories.ErrBalanceNotFound)

	bal, err := repo.IncrementBalance(ctx, "u-1", "PKR", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal.Balance)
	assert.Equal(t, int64(1), bal.Version)

	bal, err = repo.IncrementBalance(ctx, "u-1", "PKR", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(750), bal.Balance)
	assert.Equal(t, int64(2), bal.Version)

	row, err := repo.GetBalance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(750), row.Balance)
	assert.Equal(t, "PKR", row.Currency)
}

func TestDecrementBalanceIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))

	_, err := repo.DecrementBalance(ctx, "nobody", 1)
	assert.ErrorIs(t, err, repositories.ErrInsufficientFunds)

	_, err = repo.IncrementBalance(ctx, "u-1", "PKR", 100)
	require.NoError(t, err)

	_, err = repo.DecrementBalance(ctx, "u-1", 101)
	assert.ErrorIs(t, err, repositories.ErrInsufficientFunds)

	bal, err := repo.DecrementBalance(ctx, "u-1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.Balance)
	assert.Equal(t, int64(2), bal.Version, "failed decrements leave the version alone")
}

func TestCreateTransactionDetectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-1", models.TxTypeTopupCredit, "req-1", models.DirectionCredit, 10, now)))

	err := repo.CreateTransaction(ctx, newTx("u-2", models.TxTypeTopupCredit, "req-1", models.DirectionCredit, 99, now))
	assert.ErrorIs(t, err, repositories.ErrDuplicateTransaction)

	// Same source id under a different type is a different key.
	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-1", models.TxTypeRefundCredit, "req-1", models.DirectionCredit, 10, now)))

	found, err := repo.FindTransactionBySource(ctx, models.TxTypeTopupCredit, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.UserID)
	assert.Equal(t, "req-1", found.Metadata.SourceID)

	_, err = repo.FindTransactionBySource(ctx, models.TxTypeTopupCredit, "missing")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestExecuteInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-1", models.TxTypeTopupCredit, "req-1", models.DirectionCredit, 10, now)))

	err := repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		if _, err := tx.IncrementBalance(ctx, "u-1", "PKR", 10); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, newTx("u-1", models.TxTypeTopupCredit, "req-1", models.DirectionCredit, 10, now))
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicateTransaction)

	_, err = repo.GetBalance(ctx, "u-1")
	assert.ErrorIs(t, err, repositories.ErrBalanceNotFound)
}

func TestMarkTransactionVoidIsGuarded(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))
	tx := newTx("u-1", models.TxTypeTopupCredit, "req-1", models.DirectionCredit, 10, time.Now().UTC())
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	voidedAt := time.Now().UTC()
	meta := tx.Metadata
	meta.VoidedBy = "admin-1"
	meta.VoidedAt = &voidedAt

	require.NoError(t, repo.MarkTransactionVoid(ctx, tx.ID, meta, voidedAt))
	assert.ErrorIs(t, repo.MarkTransactionVoid(ctx, tx.ID, meta, voidedAt), repositories.ErrStatusConflict)

	stored, err := repo.FindTransactionBySource(ctx, models.TxTypeTopupCredit, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusVoid, stored.Status)
	assert.Equal(t, "admin-1", stored.Metadata.VoidedBy)
}

func TestListTransactionsOrderingAndCursor(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateTransaction(ctx,
			newTx("u-1", models.TxTypeTopupCredit, uuid.NewString(), models.DirectionCredit, int64(i+1), base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.CreateTransaction(ctx,
		newTx("u-1", models.TxTypeRefundCredit, "refund-1", models.DirectionCredit, 100, base.Add(10*time.Minute))))
	require.NoError(t, repo.CreateTransaction(ctx,
		newTx("u-2", models.TxTypeTopupCredit, "other", models.DirectionCredit, 7, base)))

	first, err := repo.ListTransactions(ctx, "u-1", repositories.TransactionQuery{Type: models.TxTypeTopupCredit, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(5), first[0].Amount)
	assert.Equal(t, int64(4), first[1].Amount)

	last := first[1]
	next, err := repo.ListTransactions(ctx, "u-1", repositories.TransactionQuery{
		Type:   models.TxTypeTopupCredit,
		Limit:  10,
		Before: &repositories.TransactionCursor{CreatedAt: last.CreatedAt, ID: last.ID},
	})
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.Equal(t, int64(3), next[0].Amount)

	offset, err := repo.ListTransactions(ctx, "u-1", repositories.TransactionQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, offset, 2)
	assert.Equal(t, int64(4), offset[0].Amount)
}

func TestSumPostedByUserSkipsVoid(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewWalletRepository(testutil.NewTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-1", models.TxTypeTopupCredit, "a", models.DirectionCredit, 1000, now)))
	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-1", models.TxTypeBookingPayment, "b", models.DirectionDebit, 300, now)))
	voided := newTx("u-1", models.TxTypeTopupCredit, "c", models.DirectionCredit, 50, now)
	require.NoError(t, repo.CreateTransaction(ctx, voided))
	require.NoError(t, repo.MarkTransactionVoid(ctx, voided.ID, voided.Metadata, now))
	require.NoError(t, repo.CreateTransaction(ctx, newTx("u-2", models.TxTypeTopupCredit, "d", models.DirectionCredit, 20, now)))

	sums, err := repo.SumPostedByUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, []repositories.LedgerSum{
		{UserID: "u-1", Total: 700},
		{UserID: "u-2", Total: 20},
	}, sums)
}
