// Package topup handles user requests to add funds to their wallet. Requests
// are reviewed by an admin, who either credits or rejects them.
package topup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "tripwallet/internal/errors"
	"tripwallet/internal/models"
	"tripwallet/internal/repositories"
	"tripwallet/internal/services/notification"
	"tripwallet/internal/services/wallet"
)

type Ledger interface {
	Credit(ctx context.Context, req wallet.PostRequest) (*wallet.PostResult, error)
}

type Notifier interface {
	Send(ctx context.Context, msg notification.Message) error
}

type Config struct {
	Packages          []int64
	Currency          string
	MinorUnitExponent int32
}

type Service struct {
	repo     repositories.TopupRepository
	ledger   Ledger
	notifier Notifier
	cfg      Config
	logger   *logrus.Logger
	now      func() time.Time
}

func NewService(repo repositories.TopupRepository, ledger Ledger, notifier Notifier, cfg Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Currency == "" {
		cfg.Currency = wallet.DefaultCurrency
	}
	return &Service{
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Result is returned by every state-changing operation. Replayed is set when
// the request was already in the requested terminal state.
type Result struct {
	Request     *models.TopupRequest      `json:"request"`
	Transaction *models.WalletTransaction `json:"transaction,omitempty"`
	Message     *notification.Message     `json:"message,omitempty"`
	Replayed    bool                      `json:"replayed"`
}

// Packages returns the allowed top-up sizes in minor units.
func (s *Service) Packages() []int64 {
	out := make([]int64, len(s.cfg.Packages))
	copy(out, s.cfg.Packages)
	return out
}

func (s *Service) isPackage(amount int64) bool {
	for _, p := range s.cfg.Packages {
		if p == amount {
			return true
		}
	}
	return false
}

// CreateRequest records a pending request and notifies reviewers. The wallet
// is not touched until an admin credits the request.
func (s *Service) CreateRequest(ctx context.Context, userID string, packageAmount int64) (*Result, error) {
	if userID == "" {
		return nil, apperrors.ErrInvalidRequest.WithMessage("user id is required")
	}
	if !s.isPackage(packageAmount) {
		return nil, apperrors.ErrTopupInvalidPackage
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	req := &models.TopupRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		PackageAmount: packageAmount,
		Status:        models.TopupStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	msg := s.buildMessage(req)
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, msg); err != nil {
			// The request exists and shows up in the admin list regardless.
			s.logger.WithError(err).WithField("topup_id", req.ID).Warn("failed to notify reviewers")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"topup_id": req.ID,
		"user_id":  userID,
		"amount":   packageAmount,
	}).Info("top-up request created")
	return &Result{Request: req, Message: &msg}, nil
}

func (s *Service) get(ctx context.Context, id string) (*models.TopupRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTopupNotFound) {
			return nil, apperrors.ErrTopupNotFound
		}
		return nil, err
	}
	return req, nil
}

// MarkCredited posts the top-up to the wallet and closes the request.
func (s *Service) MarkCredited(ctx context.Context, requestID, adminID string) (*Result, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case models.TopupStatusProcessed:
		return &Result{Request: req, Replayed: true}, nil
	case models.TopupStatusRejected:
		return nil, apperrors.ErrTopupAlreadyRejected
	}

	posting, err := s.ledger.Credit(ctx, wallet.PostRequest{
		UserID:     req.UserID,
		Amount:     req.PackageAmount,
		Type:       models.TxTypeTopupCredit,
		SourceID:   req.ID,
		SourceType: models.SourceTypeTopupRequest,
		PostedBy:   adminID,
		Note:       "Wallet top-up",
		Metadata: models.TxMetadata{
			ActorID:   adminID,
			ActorRole: models.RoleAdmin,
			Reason:    "topup_approved",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit top-up %s: %w", req.ID, err)
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.MarkProcessed(ctx, req.ID, adminID, posting.Transaction.ID, at); err != nil {
		if !errors.Is(err, repositories.ErrStatusConflict) {
			return nil, err
		}
		current, getErr := s.get(ctx, req.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.TopupStatusProcessed {
			return &Result{Request: current, Transaction: posting.Transaction, Replayed: true}, nil
		}
		// Rejected between our read and the credit. The credit stands and
		// must be voided by hand.
		s.logger.WithFields(logrus.Fields{
			"topup_id":       req.ID,
			"transaction_id": posting.Transaction.ID,
		}).Error("top-up rejected while its credit was being posted")
		return nil, apperrors.ErrTopupAlreadyRejected
	}

	req.Status = models.TopupStatusProcessed
	req.ProcessedAt = &at
	req.ProcessedBy = adminID
	req.TransactionID = posting.Transaction.ID
	req.UpdatedAt = at

	s.logger.WithFields(logrus.Fields{
		"topup_id":       req.ID,
		"transaction_id": posting.Transaction.ID,
		"admin_id":       adminID,
	}).Info("top-up credited")
	return &Result{Request: req, Transaction: posting.Transaction, Replayed: posting.Replayed}, nil
}

// RejectTopup closes a pending request without touching the wallet.
func (s *Service) RejectTopup(ctx context.Context, requestID, adminID, reason string) (*Result, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case models.TopupStatusProcessed:
		return nil, apperrors.ErrTopupAlreadyProcessed
	case models.TopupStatusRejected:
		return &Result{Request: req, Replayed: true}, nil
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.MarkRejected(ctx, req.ID, adminID, reason, at); err != nil {
		if !errors.Is(err, repositories.ErrStatusConflict) {
			return nil, err
		}
		current, getErr := s.get(ctx, req.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == models.TopupStatusProcessed {
			return nil, apperrors.ErrTopupAlreadyProcessed
		}
		return &Result{Request: current, Replayed: true}, nil
	}

	req.Status = models.TopupStatusRejected
	req.ProcessedAt = &at
	req.ProcessedBy = adminID
	req.RejectionReason = reason
	req.UpdatedAt = at

	s.logger.WithFields(logrus.Fields{
		"topup_id": req.ID,
		"admin_id": adminID,
		"reason":   reason,
	}).Info("top-up rejected")
	return &Result{Request: req}, nil
}

// ListRequests returns requests newest first, optionally filtered by status.
func (s *Service) ListRequests(ctx context.Context, status string, limit int) ([]models.TopupRequest, error) {
	switch status {
	case "", models.TopupStatusPending, models.TopupStatusProcessed, models.TopupStatusRejected:
	default:
		return nil, apperrors.ErrInvalidRequest.WithMessage("unknown top-up status " + status)
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.repo.List(ctx, repositories.TopupFilter{Status: status, Limit: limit})
}

// ListForUser returns the user's own requests, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]models.TopupRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.repo.List(ctx, repositories.TopupFilter{UserID: userID, Limit: limit})
}
