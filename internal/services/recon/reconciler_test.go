package recon

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tripwallet/internal/logging"
	"tripwallet/internal/models"
	"tripwallet/internal/repositories"
	"tripwallet/internal/services/wallet"
	dbtest "tripwallet/internal/testutil"
)

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	ledger := wallet.NewService(repositories.NewWalletRepository(db), nil, wallet.WalletConfig{}, nil, logging.NewDiscardLogger())

	for _, req := range []wallet.PostRequest{
		{UserID: "u-1", Amount: 1000, Type: models.TxTypeTopupCredit, SourceID: "t-1"},
		{UserID: "u-2", Amount: 500, Type: models.TxTypeTopupCredit, SourceID: "t-2"},
	} {
		_, err := ledger.Credit(ctx, req)
		require.NoError(t, err)
	}
	_, err := ledger.Debit(ctx, wallet.PostRequest{UserID: "u-1", Amount: 300, Type: models.TxTypeBookingPayment, SourceID: "b-1"})
	require.NoError(t, err)
}

func TestRunCleanLedger(t *testing.T) {
	db := dbtest.NewTestDB(t)
	seed(t, db)
	metrics := NewMetrics(prometheus.NewRegistry())

	r := NewReconciler(Config{Repo: repositories.NewWalletRepository(db), Metrics: metrics, Logger: logging.NewDiscardLogger()})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.drifted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("ok")))
}

func TestRunReportsDrift(t *testing.T) {
	db := dbtest.NewTestDB(t)
	seed(t, db)

	// Out-of-band writes the ledger knows nothing about.
	require.NoError(t, db.Model(&models.WalletBalance{}).Where("user_id = ?", "u-2").Update("balance", 650).Error)
	require.NoError(t, db.Create(&models.WalletTransaction{
		ID:        "orphan",
		UserID:    "u-3",
		Direction: models.DirectionCredit,
		Amount:    40,
		Type:      models.TxTypeManualAdjustment,
		Status:    models.TxStatusPosted,
		SourceID:  "adj-1",
		CreatedAt: time.Now().UTC(),
	}).Error)

	metrics := NewMetrics(prometheus.NewRegistry())
	r := NewReconciler(Config{Repo: repositories.NewWalletRepository(db), Metrics: metrics, Logger: logging.NewDiscardLogger()})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Drift{
		{UserID: "u-2", Stored: 650, Ledger: 500, Difference: 150},
		{UserID: "u-3", Stored: 0, Ledger: 40, Difference: -40},
	}, report.Drifts)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.drifted))
}

func TestSchedulerNextRun(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	s := NewScheduler(SchedulerConfig{Reconciler: &Reconciler{}, RunHour: 3, RunMinute: 15, Location: loc})

	before := time.Date(2026, 3, 10, 1, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 15, 0, 0, loc), s.nextRun(before))

	after := time.Date(2026, 3, 10, 3, 15, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 15, 0, 0, loc), s.nextRun(after))

	clamped := NewScheduler(SchedulerConfig{RunHour: 42, RunMinute: -3})
	assert.Equal(t, 23, clamped.runHour)
	assert.Equal(t, 0, clamped.runMinute)
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Reconciler: &Reconciler{}, Logger: logging.NewDiscardLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
