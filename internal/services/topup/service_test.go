package topup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "tripwallet/internal/errors"
	"tripwallet/internal/logging"
	"tripwallet/internal/models"
	"tripwallet/internal/repositories"
	"tripwallet/internal/services/notification"
	"tripwallet/internal/services/wallet"
	"tripwallet/internal/testutil"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type fixture struct {
	svc      *Service
	ledger   wallet.Service
	notifier *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logging.NewDiscardLogger()
	ledger := wallet.NewService(repositories.NewWalletRepository(db), nil, wallet.WalletConfig{}, nil, log)
	notifier := &mockNotifier{}

	svc := NewService(repositories.NewTopupRepository(db), ledger, notifier, Config{
		Packages:          []int64{5000, 10000},
		Currency:          "PKR",
		MinorUnitExponent: 0,
	}, log)
	return &fixture{svc: svc, ledger: ledger, notifier: notifier}
}

func (f *fixture) create(t *testing.T, userID string, amount int64) *models.TopupRequest {
	t.Helper()
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	res, err := f.svc.CreateRequest(context.Background(), userID, amount)
	require.NoError(t, err)
	return res.Request
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b.Balance
}

func TestCreateRequestNotifiesReviewers(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
		return msg.Channel == reviewChannel && msg.Subject == "Wallet top-up request: PKR 10000"
	})).Return(nil).Once()

	res, err := f.svc.CreateRequest(context.Background(), "u-1", 10000)
	require.NoError(t, err)

	assert.Equal(t, models.TopupStatusPending, res.Request.Status)
	require.NotNil(t, res.Message)
	assert.Equal(t, res.Request.ID, res.Message.Reference)
	assert.Contains(t, res.Message.Body, "u-1")
	assert.Equal(t, int64(0), f.balance(t, "u-1"))
	f.notifier.AssertExpectations(t)
}

func TestCreateRequestSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	res, err := f.svc.CreateRequest(context.Background(), "u-1", 5000)
	require.NoError(t, err)

	stored, err := f.svc.ListRequests(context.Background(), models.TopupStatusPending, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Request.ID, stored[0].ID)
}

func TestCreateRequestRejectsUnknownPackage(t *testing.T) {
	f := newFixture(t)

	for _, amount := range []int64{0, -5000, 7500} {
		_, err := f.svc.CreateRequest(context.Background(), "u-1", amount)
		assert.ErrorIs(t, err, apperrors.ErrTopupInvalidPackage)
	}
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestMarkCreditedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, "u-1", 5000)

	res, err := f.svc.MarkCredited(ctx, req.ID, "admin-1")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, models.TopupStatusProcessed, res.Request.Status)
	assert.Equal(t, "admin-1", res.Request.ProcessedBy)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, models.TxTypeTopupCredit, res.Transaction.Type)
	assert.Equal(t, models.SourceTypeTopupRequest, res.Transaction.SourceType)
	assert.Equal(t, req.ID, res.Transaction.SourceID)

	again, err := f.svc.MarkCredited(ctx, req.ID, "admin-2")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, "admin-1", again.Request.ProcessedBy)
	assert.Equal(t, res.Transaction.ID, again.Request.TransactionID)

	assert.Equal(t, int64(5000), f.balance(t, "u-1"))
}

func TestRejectAndCreditAreExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rejected := f.create(t, "u-1", 5000)
	res, err := f.svc.RejectTopup(ctx, rejected.ID, "admin-1", "payment not received")
	require.NoError(t, err)
	assert.Equal(t, models.TopupStatusRejected, res.Request.Status)
	assert.Equal(t, "payment not received", res.Request.RejectionReason)

	again, err := f.svc.RejectTopup(ctx, rejected.ID, "admin-1", "again")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, "payment not received", again.Request.RejectionReason)

	_, err = f.svc.MarkCredited(ctx, rejected.ID, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrTopupAlreadyRejected)

	credited := f.create(t, "u-1", 10000)
	_, err = f.svc.MarkCredited(ctx, credited.ID, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.RejectTopup(ctx, credited.ID, "admin-1", "too late")
	assert.ErrorIs(t, err, apperrors.ErrTopupAlreadyProcessed)

	assert.Equal(t, int64(10000), f.balance(t, "u-1"))
}

func TestUnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MarkCredited(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrTopupNotFound)
	_, err = f.svc.RejectTopup(context.Background(), "missing", "admin-1", "")
	assert.ErrorIs(t, err, apperrors.ErrTopupNotFound)
}

func TestListRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first := f.create(t, "u-1", 5000)
	second := f.create(t, "u-2", 10000)
	_, err := f.svc.RejectTopup(ctx, first.ID, "admin-1", "dup")
	require.NoError(t, err)

	pending, err := f.svc.ListRequests(ctx, models.TopupStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	all, err := f.svc.ListRequests(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	mine, err := f.svc.ListForUser(ctx, "u-1", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.ListRequests(ctx, "lost", 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "PKR 5000", FormatAmount(5000, 0, "PKR"))
	assert.Equal(t, "PKR 1234.56", FormatAmount(123456, 2, "PKR"))
	assert.Equal(t, "USD 0.05", FormatAmount(5, 2, "USD"))
}
