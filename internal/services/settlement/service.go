// Package settlement pays out approved trip refunds, either as an expiring
// wallet credit or as a bank refund handled outside this service.
package settlement

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
	"tripwallet/internal/services/refundquote"
	"tripwallet/internal/services/wallet"
)

// Ledger is the part of the wallet ledger settlements post through.
type Ledger interface {
	Credit(ctx context.Context, req wallet.PostRequest) (*wallet.PostResult, error)
}

type Service struct {
	repo   repositories.SettlementRepository
	ledger Ledger
	quotes *refundquote.Calculator
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(repo repositories.SettlementRepository, ledger Ledger, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:   repo,
		ledger: ledger,
		quotes: refundquote.NewCalculator(),
		logger: logger,
		now:    time.Now,
	}
}

type SettlementInput struct {
	RefundID string
	UserID   string
	Amount   int64
	Method   string
	Status   string
	PostedBy string
	PostedAt *time.Time
	Metadata models.JSON
}

// EnsureSettlement creates or overwrites the settlement for (RefundID, Method).
func (s *Service) EnsureSettlement(ctx context.Context, in SettlementInput) (*models.RefundSettlement, error) {
	switch {
	case in.RefundID == "" || in.UserID == "":
		return nil, apperrors.ErrSettlementInvalid.WithMessage("refund id and user id are required")
	case !models.IsValidSettlementMethod(in.Method):
		return nil, apperrors.ErrSettlementInvalid.WithMessage("unknown settlement method " + in.Method)
	case !models.IsValidSettlementStatus(in.Status):
		return nil, apperrors.ErrSettlementInvalid.WithMessage("unknown settlement status " + in.Status)
	case in.Amount < 0:
		return nil, apperrors.ErrSettlementInvalid.WithMessage("amount must not be negative")
	}

	existing, err := s.repo.FindByRefundAndMethod(ctx, in.RefundID, in.Method)
	switch {
	case err == nil && existing.UserID != in.UserID:
		return nil, apperrors.ErrSettlementInvalid.WithMessage("refund " + in.RefundID + " is settled to a different user")
	case err != nil && !errors.Is(err, repositories.ErrSettlementNotFound):
		return nil, fmt.Errorf("failed to load settlement for refund %s: %w", in.RefundID, err)
	}

	row, err := s.repo.Upsert(ctx, &models.RefundSettlement{
		ID:       uuid.NewString(),
		RefundID: in.RefundID,
		UserID:   in.UserID,
		Amount:   in.Amount,
		Method:   in.Method,
		Status:   in.Status,
		PostedBy: in.PostedBy,
		PostedAt: in.PostedAt,
		Metadata: in.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement for refund %s: %w", in.RefundID, err)
	}
	return row, nil
}

func (s *Service) ListSettlements(ctx context.Context, refundID string) ([]models.RefundSettlement, error) {
	return s.repo.ListByRefund(ctx, refundID)
}

// PostToWallet credits an approved refund to the user's wallet. It is safe to
// retry: the refund id is the idempotency key.
func (s *Service) PostToWallet(ctx context.Context, refundID, userID string, amount int64, postedBy string) (*wallet.PostResult, error) {
	if amount <= 0 {
		return nil, apperrors.ErrRefundCreditZero
	}

	expiry := CreditExpiry(s.now())
	res, err := s.ledger.Credit(ctx, wallet.PostRequest{
		UserID:     userID,
		Amount:     amount,
		Type:       models.TxTypeRefundCredit,
		SourceID:   refundID,
		SourceType: models.SourceTypeRefundSettlement,
		ExpiresAt:  &expiry,
		PostedBy:   postedBy,
		Note:       "Trip refund credited to wallet",
		Metadata: models.TxMetadata{
			SourceRef: refundID,
			ActorID:   postedBy,
			ActorRole: models.RoleAdmin,
			Reason:    "refund_settlement",
			Extra:     map[string]interface{}{"refundId": refundID},
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"refund_id":  refundID,
		"user_id":    userID,
		"amount":     amount,
		"expires_at": expiry,
		"replayed":   res.Replayed,
	}).Info("refund credited to wallet")
	return res, nil
}

// CreditExpiry is the earlier of next January 1st 00:00 Pakistan Time and
// twelve months from now.
func CreditExpiry(now time.Time) time.Time {
	local := now.In(refundquote.Location)
	yearEnd := time.Date(local.Year()+1, time.January, 1, 0, 0, 0, 0, refundquote.Location)
	yearOut := local.AddDate(1, 0, 0)
	if yearOut.Before(yearEnd) {
		return yearOut.UTC()
	}
	return yearEnd.UTC()
}

type PayoutRequest struct {
	RefundID          string
	UserID            string
	Method            string
	AmountPaid        int64
	FlagshipStartDate time.Time
	SubmittedAt       time.Time
	PostedBy          string
}

type PayoutResult struct {
	Quote      refundquote.Quote        `json:"quote"`
	Settlement *models.RefundSettlement `json:"settlement"`
	Posting    *wallet.PostResult       `json:"posting,omitempty"`
}

// PayoutRefund prices the refund with the cancellation policy and settles it.
// Wallet credits are posted immediately; bank refunds are recorded as pending
// for the finance team.
func (s *Service) PayoutRefund(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	if !models.IsValidSettlementMethod(req.Method) {
		return nil, apperrors.ErrSettlementInvalid.WithMessage("unknown settlement method " + req.Method)
	}
	if req.RefundID == "" || req.UserID == "" {
		return nil, apperrors.ErrSettlementInvalid.WithMessage("refund id and user id are required")
	}

	quote := s.quotes.Compute(req.FlagshipStartDate, req.SubmittedAt, req.AmountPaid)
	result := &PayoutResult{Quote: quote}

	meta := models.JSON{
		"policyRef":           quote.PolicyRef,
		"tier":                quote.TierLabel,
		"refundPercent":       quote.RefundPercent,
		"daysBeforeDeparture": quote.DaysBeforeDeparture,
		"processingFee":       quote.ProcessingFee,
		"amountPaid":          quote.AmountPaid,
	}

	in := SettlementInput{
		RefundID: req.RefundID,
		UserID:   req.UserID,
		Amount:   quote.RefundAmount,
		Method:   req.Method,
		Status:   models.SettlementStatusPending,
		Metadata: meta,
	}

	if req.Method == models.SettlementMethodWalletCredit {
		posting, err := s.PostToWallet(ctx, req.RefundID, req.UserID, quote.RefundAmount, req.PostedBy)
		if err != nil {
			return nil, err
		}
		result.Posting = posting
		credited := posting.Transaction
		if credited.Amount != quote.RefundAmount {
			// A retry re-priced the refund but the wallet keeps the first credit.
			s.logger.WithFields(logrus.Fields{
				"refund_id":      req.RefundID,
				"transaction_id": credited.ID,
				"credited":       credited.Amount,
				"quoted":         quote.RefundAmount,
			}).Warn("payout quote differs from the existing wallet credit")
			meta["quotedRefundAmount"] = quote.RefundAmount
		}
		postedAt := credited.CreatedAt
		meta["transactionId"] = credited.ID
		in.Amount = credited.Amount
		in.Status = models.SettlementStatusPosted
		in.PostedBy = req.PostedBy
		in.PostedAt = &postedAt
	}

	settlement, err := s.EnsureSettlement(ctx, in)
	if err != nil {
		if result.Posting != nil && !errors.Is(err, apperrors.ErrSettlementInvalid) {
			s.logger.WithError(err).WithField("refund_id", req.RefundID).
				Error("wallet credited but settlement record failed; retry the payout")
		}
		return nil, err
	}
	result.Settlement = settlement
	return result, nil
}
