package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripwallet/internal/models"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) GetBalance(ctx context.Context, userID string) (*models.WalletBalance, error) {
	var bal models.WalletBalance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&bal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &bal, nil
}

func (r *walletRepository) ListBalances(ctx context.Context) ([]models.WalletBalance, error) {
	var rows []models.WalletBalance
	if err := r.db.WithContext(ctx).Order("user_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return rows, nil
}

func (r *walletRepository) IncrementBalance(ctx context.Context, userID, currency string, amount int64) (*models.WalletBalance, error) {
	now := time.Now().UTC()
	row := models.WalletBalance{
		UserID:    userID,
		Currency:  currency,
		Balance:   amount,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("wallet_balances.balance + ?", amount),
			"version":    gorm.Expr("wallet_balances.version + 1"),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to increment balance: %w", err)
	}
	return r.readBalance(ctx, userID)
}

func (r *walletRepository) DecrementBalance(ctx context.Context, userID string, amount int64) (*models.WalletBalance, error) {
	res := r.db.WithContext(ctx).Model(&models.WalletBalance{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to decrement balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientFunds
	}
	return r.readBalance(ctx, userID)
}

func (r *walletRepository) readBalance(ctx context.Context, userID string) (*models.WalletBalance, error) {
	var row models.WalletBalance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return &row, nil
}

func (r *walletRepository) FindTransactionBySource(ctx context.Context, txType, sourceID string) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("type = ? AND source_id = ?", txType, sourceID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &tx, nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) MarkTransactionVoid(ctx context.Context, id string, meta models.TxMetadata, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Where("id = ? AND status = ?", id, models.TxStatusPosted).
		Updates(map[string]interface{}{
			"status":     models.TxStatusVoid,
			"metadata":   meta,
			"updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to void transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID string, q TransactionQuery) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Before != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			q.Before.CreatedAt, q.Before.CreatedAt, q.Before.ID)
	} else if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var txs []models.WalletTransaction
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *walletRepository) SumPostedByUser(ctx context.Context) ([]LedgerSum, error) {
	var sums []LedgerSum
	err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).
		Select("user_id, COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0) AS total", models.DirectionCredit).
		Where("status = ?", models.TxStatusPosted).
		Group("user_id").
		Order("user_id").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return sums, nil
}

func (r *walletRepository) ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}
