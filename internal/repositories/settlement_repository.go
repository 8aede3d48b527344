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

type SettlementRepository interface {
	// Upsert inserts s or overwrites the existing (refund_id, method) row and
	// returns the stored row. The user of an existing row is never changed;
	// PostedBy and PostedAt are only overwritten when set.
	Upsert(ctx context.Context, s *models.RefundSettlement) (*models.RefundSettlement, error)
	FindByRefundAndMethod(ctx context.Context, refundID, method string) (*models.RefundSettlement, error)
	ListByRefund(ctx context.Context, refundID string) ([]models.RefundSettlement, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Upsert(ctx context.Context, s *models.RefundSettlement) (*models.RefundSettlement, error) {
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	updates := map[string]interface{}{
		"amount":     s.Amount,
		"status":     s.Status,
		"metadata":   s.Metadata,
		"updated_at": now,
	}
	if s.PostedBy != "" {
		updates["posted_by"] = s.PostedBy
	}
	if s.PostedAt != nil {
		updates["posted_at"] = *s.PostedAt
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "refund_id"}, {Name: "method"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(s).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert settlement: %w", err)
	}
	return r.FindByRefundAndMethod(ctx, s.RefundID, s.Method)
}

func (r *settlementRepository) FindByRefundAndMethod(ctx context.Context, refundID, method string) (*models.RefundSettlement, error) {
	var s models.RefundSettlement
	err := r.db.WithContext(ctx).
		Where("refund_id = ? AND method = ?", refundID, method).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &s, nil
}

func (r *settlementRepository) ListByRefund(ctx context.Context, refundID string) ([]models.RefundSettlement, error) {
	var rows []models.RefundSettlement
	err := r.db.WithContext(ctx).
		Where("refund_id = ?", refundID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return rows, nil
}
