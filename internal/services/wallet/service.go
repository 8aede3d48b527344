package wallet

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
	"tripwallet/internal/utils/pagination"
)

type service struct {
	repo    repositories.WalletRepository
	cache   BalanceCache
	config  WalletConfig
	metrics MetricsCollector
	logger  *logrus.Logger
	now     func() time.Time
}

// NewService creates the ledger. cache, metrics and logger may be nil.
func NewService(
	repo repositories.WalletRepository,
	cache BalanceCache,
	config WalletConfig,
	metrics MetricsCollector,
	logger *logrus.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		cache = NoopBalanceCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}

	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Credit(ctx context.Context, req PostRequest) (*PostResult, error) {
	return s.post(ctx, opCredit, models.DirectionCredit, req)
}

func (s *service) Debit(ctx context.Context, req PostRequest) (*PostResult, error) {
	return s.post(ctx, opDebit, models.DirectionDebit, req)
}

func (s *service) post(ctx context.Context, op, direction string, req PostRequest) (*PostResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration(op, time.Since(start)) }()

	if req.Amount <= 0 {
		return nil, s.fail(op, apperrors.ErrInvalidAmount)
	}
	if req.UserID == "" || req.Type == "" || req.SourceID == "" {
		return nil, s.fail(op, apperrors.ErrInvalidRequest)
	}

	existing, err := s.repo.FindTransactionBySource(ctx, req.Type, req.SourceID)
	switch {
	case err == nil:
		return s.replay(op, direction, req, existing)
	case !errors.Is(err, repositories.ErrTransactionNotFound):
		return nil, s.fail(op, fmt.Errorf("failed to look up %s/%s: %w", req.Type, req.SourceID, err))
	}

	txn := s.newTransaction(direction, req)
	var row *models.WalletBalance
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		var err error
		if direction == models.DirectionCredit {
			row, err = tx.IncrementBalance(ctx, req.UserID, s.config.Currency, req.Amount)
		} else {
			row, err = tx.DecrementBalance(ctx, req.UserID, req.Amount)
		}
		if err != nil {
			return err
		}
		txn.BalanceAfter = row.Balance
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientFunds):
			return nil, s.fail(op, apperrors.ErrInsufficientBalance)
		case errors.Is(err, repositories.ErrDuplicateTransaction):
			// Lost the race on (type, source_id); the rollback already undid
			// our balance change.
			winner, lookupErr := s.repo.FindTransactionBySource(ctx, req.Type, req.SourceID)
			if lookupErr != nil {
				return nil, s.fail(op, fmt.Errorf("failed to reload %s/%s after duplicate: %w", req.Type, req.SourceID, lookupErr))
			}
			s.logger.WithFields(logrus.Fields{
				"type":      req.Type,
				"source_id": req.SourceID,
				"user_id":   req.UserID,
			}).Info("concurrent duplicate posting rolled back")
			return s.replay(op, direction, req, winner)
		}
		return nil, s.fail(op, fmt.Errorf("failed to post %s: %w", direction, err))
	}

	s.publishBalance(ctx, row)
	s.metrics.RecordPosting(txn.Type, direction, txn.Amount)
	s.logger.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"user_id":        txn.UserID,
		"type":           txn.Type,
		"direction":      direction,
		"amount":         txn.Amount,
		"balance_after":  txn.BalanceAfter,
	}).Info("wallet transaction posted")

	return &PostResult{Transaction: txn}, nil
}

// replay answers a request whose key already exists. The stored transaction
// is returned unchanged even if the new request differs.
func (s *service) replay(op, direction string, req PostRequest, existing *models.WalletTransaction) (*PostResult, error) {
	if existing.IsVoid() {
		return nil, s.fail(op, apperrors.ErrTransactionVoid)
	}
	if existing.UserID != req.UserID || existing.Amount != req.Amount || existing.Direction != direction {
		s.logger.WithFields(logrus.Fields{
			"transaction_id": existing.ID,
			"type":           req.Type,
			"source_id":      req.SourceID,
		}).Warn("idempotency key reused with different posting details")
	}
	s.metrics.RecordReplay(op, existing.Type)
	return &PostResult{Transaction: existing, Replayed: true}, nil
}

func (s *service) newTransaction(direction string, req PostRequest) *models.WalletTransaction {
	now := s.now().UTC().Truncate(time.Microsecond)

	meta := req.Metadata
	meta.SourceID = req.SourceID
	if meta.ActorID == "" {
		meta.ActorID = req.PostedBy
	}

	return &models.WalletTransaction{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Direction:  direction,
		Amount:     req.Amount,
		Type:       req.Type,
		Status:     models.TxStatusPosted,
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		ExpiresAt:  req.ExpiresAt,
		PostedBy:   req.PostedBy,
		Note:       req.Note,
		Metadata:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *service) VoidBySource(ctx context.Context, req VoidRequest) (*PostResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration(opVoid, time.Since(start)) }()

	if req.Type == "" || req.SourceID == "" {
		return nil, s.fail(opVoid, apperrors.ErrInvalidRequest.WithMessage("type and source id are required"))
	}

	existing, err := s.repo.FindTransactionBySource(ctx, req.Type, req.SourceID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, s.fail(opVoid, apperrors.ErrTransactionNotFound)
		}
		return nil, s.fail(opVoid, fmt.Errorf("failed to look up %s/%s: %w", req.Type, req.SourceID, err))
	}
	if existing.IsVoid() {
		s.metrics.RecordReplay(opVoid, existing.Type)
		return &PostResult{Transaction: existing, Replayed: true}, nil
	}

	voided := *existing
	var row *models.WalletBalance
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		var err error
		if existing.Direction == models.DirectionCredit {
			row, err = tx.DecrementBalance(ctx, existing.UserID, existing.Amount)
		} else {
			row, err = tx.IncrementBalance(ctx, existing.UserID, s.config.Currency, existing.Amount)
		}
		if err != nil {
			return err
		}
		balance := row.Balance

		at := s.now().UTC().Truncate(time.Microsecond)
		meta := existing.Metadata
		meta.VoidedAt = &at
		meta.VoidedBy = req.VoidedBy
		meta.VoidNote = req.Note
		meta.VoidBalanceAfter = &balance

		if err := tx.MarkTransactionVoid(ctx, existing.ID, meta, at); err != nil {
			return err
		}
		voided.Status = models.TxStatusVoid
		voided.Metadata = meta
		voided.UpdatedAt = at
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientFunds):
			return nil, s.fail(opVoid, apperrors.ErrVoidInsufficientBalance)
		case errors.Is(err, repositories.ErrStatusConflict):
			// Voided concurrently; our reversal was rolled back.
			current, lookupErr := s.repo.FindTransactionBySource(ctx, req.Type, req.SourceID)
			if lookupErr != nil {
				return nil, s.fail(opVoid, fmt.Errorf("failed to reload %s/%s after void conflict: %w", req.Type, req.SourceID, lookupErr))
			}
			s.metrics.RecordReplay(opVoid, current.Type)
			return &PostResult{Transaction: current, Replayed: true}, nil
		}
		return nil, s.fail(opVoid, fmt.Errorf("failed to void %s/%s: %w", req.Type, req.SourceID, err))
	}

	s.publishBalance(ctx, row)
	s.metrics.RecordVoid(existing.Type)
	s.logger.WithFields(logrus.Fields{
		"transaction_id": existing.ID,
		"user_id":        existing.UserID,
		"type":           existing.Type,
		"voided_by":      req.VoidedBy,
		"balance_after":  *voided.Metadata.VoidBalanceAfter,
	}).Info("wallet transaction voided")

	return &PostResult{Transaction: &voided}, nil
}

func (s *service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	if userID == "" {
		return nil, apperrors.ErrInvalidRequest.WithMessage("user id is required")
	}
	if bal, ok := s.cachedBalance(ctx, userID); ok {
		return &Balance{UserID: userID, Currency: s.config.Currency, Balance: bal}, nil
	}

	row, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrBalanceNotFound) {
			return &Balance{UserID: userID, Currency: s.config.Currency}, nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	s.fillBalance(ctx, row)
	return &Balance{UserID: userID, Currency: row.Currency, Balance: row.Balance}, nil
}

func (s *service) ListTransactions(ctx context.Context, userID string, opts ListOptions) (*TransactionPage, error) {
	if userID == "" {
		return nil, apperrors.ErrInvalidRequest.WithMessage("user id is required")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	// One extra row tells us whether another page exists.
	q := repositories.TransactionQuery{Type: opts.Type, Limit: limit + 1}
	if opts.Cursor != "" {
		c, err := pagination.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, apperrors.ErrInvalidCursor
		}
		q.Before = &repositories.TransactionCursor{CreatedAt: c.Timestamp, ID: c.ID}
	} else {
		q.Offset = (page - 1) * limit
	}

	txs, err := s.repo.ListTransactions(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	result := &TransactionPage{Page: page, Limit: limit}
	if len(txs) > limit {
		txs = txs[:limit]
		last := txs[limit-1]
		result.NextCursor = pagination.EncodeCursor(last.CreatedAt, last.ID)
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}
	result.Transactions = txs
	return result, nil
}

// fail records err against op and returns it.
func (s *service) fail(op string, err error) error {
	code := "internal"
	if de, ok := apperrors.As(err); ok {
		code = de.Code
	} else {
		s.logger.WithError(err).WithField("operation", op).Error("ledger operation failed")
	}
	s.metrics.RecordError(op, code)
	return err
}
