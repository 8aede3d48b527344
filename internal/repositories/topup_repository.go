package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripwallet/internal/models"
)

type TopupRepository interface {
	Create(ctx context.Context, req *models.TopupRequest) error
	GetByID(ctx context.Context, id string) (*models.TopupRequest, error)
	List(ctx context.Context, filter TopupFilter) ([]models.TopupRequest, error)
	// MarkProcessed and MarkRejected only move a pending request; otherwise
	// they return ErrStatusConflict.
	MarkProcessed(ctx context.Context, id, adminID, transactionID string, at time.Time) error
	MarkRejected(ctx context.Context, id, adminID, reason string, at time.Time) error
}

type TopupFilter struct {
	Status string
	UserID string
	Limit  int
}

type topupRepository struct {
	db *gorm.DB
}

func NewTopupRepository(db *gorm.DB) TopupRepository {
	return &topupRepository{db: db}
}

func (r *topupRepository) Create(ctx context.Context, req *models.TopupRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create top-up request: %w", err)
	}
	return nil
}

func (r *topupRepository) GetByID(ctx context.Context, id string) (*models.TopupRequest, error) {
	var req models.TopupRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopupNotFound
		}
		return nil, fmt.Errorf("failed to get top-up request: %w", err)
	}
	return &req, nil
}

func (r *topupRepository) List(ctx context.Context, filter TopupFilter) ([]models.TopupRequest, error) {
	query := r.db.WithContext(ctx)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.TopupRequest
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list top-up requests: %w", err)
	}
	return rows, nil
}

func (r *topupRepository) MarkProcessed(ctx context.Context, id, adminID, transactionID string, at time.Time) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":         models.TopupStatusProcessed,
		"processed_at":   at,
		"processed_by":   adminID,
		"transaction_id": transactionID,
		"updated_at":     at,
	})
}

func (r *topupRepository) MarkRejected(ctx context.Context, id, adminID, reason string, at time.Time) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":           models.TopupStatusRejected,
		"processed_at":     at,
		"processed_by":     adminID,
		"rejection_reason": reason,
		"updated_at":       at,
	})
}

func (r *topupRepository) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.TopupRequest{}).
		Where("id = ? AND status = ?", id, models.TopupStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update top-up request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}
