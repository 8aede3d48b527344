package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwallet/internal/logging"
	"tripwallet/internal/models"
	"tripwallet/internal/repositories"
	"tripwallet/internal/routes"
	"tripwallet/internal/services/notification"
	"tripwallet/internal/services/recon"
	"tripwallet/internal/services/refundquote"
	"tripwallet/internal/services/settlement"
	"tripwallet/internal/services/topup"
	"tripwallet/internal/services/wallet"
	"tripwallet/internal/testutil"
	"tripwallet/internal/utils"
)

const secret = "routes-test-secret"

type server struct {
	app        *fiber.App
	userToken  string
	adminToken string
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewTestDB(t)
	logger := logging.NewDiscardLogger()
	reg := prometheus.NewRegistry()

	walletRepo := repositories.NewWalletRepository(db)
	ledger := wallet.NewService(walletRepo, nil, wallet.WalletConfig{Currency: "PKR"}, wallet.NewPrometheusMetrics(reg), logger)
	topupCfg := topup.Config{Packages: []int64{5000, 10000}, Currency: "PKR"}

	app := fiber.New()
	routes.SetupRoutes(app, routes.Dependencies{
		DB:          db,
		Gatherer:    reg,
		JWTSecret:   secret,
		Logger:      logger,
		Wallet:      ledger,
		Settlements: settlement.NewService(repositories.NewSettlementRepository(db), ledger, logger),
		Quotes:      refundquote.NewCalculator(),
		Topups:      topup.NewService(repositories.NewTopupRepository(db), ledger, notification.NewService(logger), topupCfg, logger),
		TopupConfig: topupCfg,
		Reconciler:  recon.NewReconciler(recon.Config{Repo: walletRepo, Metrics: recon.NewMetrics(reg), Logger: logger}),
	})

	userToken, err := utils.GenerateToken("user-1", models.RoleUser, secret, time.Hour)
	require.NoError(t, err)
	adminToken, err := utils.GenerateToken("admin-1", models.RoleAdmin, secret, time.Hour)
	require.NoError(t, err)
	return &server{app: app, userToken: userToken, adminToken: adminToken}
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/wallet/balance", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/admin/wallet/credit", s.userToken, map[string]interface{}{
		"userId": "user-1", "amount": 100, "sourceId": "x",
	})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAdminCreditDebitVoid(t *testing.T) {
	s := newServer(t)
	credit := map[string]interface{}{"userId": "user-1", "amount": 1000, "sourceId": "adj-1", "reason": "goodwill"}

	status, body := s.do(t, http.MethodPost, "/api/admin/wallet/credit", s.adminToken, credit)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, false, body["replayed"])
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, float64(1000), tx["balance_after"])
	assert.Equal(t, models.TxTypeManualAdjustment, tx["type"])

	status, body = s.do(t, http.MethodPost, "/api/admin/wallet/credit", s.adminToken, credit)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["replayed"])

	status, body = s.do(t, http.MethodPost, "/api/admin/wallet/debit", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 5000, "type": models.TxTypeBookingPayment, "sourceId": "booking-1",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "wallet_insufficient_balance", body["code"])

	status, _ = s.do(t, http.MethodPost, "/api/admin/wallet/debit", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 400, "type": models.TxTypeBookingPayment, "sourceId": "booking-1",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = s.do(t, http.MethodPost, "/api/admin/wallet/void", s.adminToken, map[string]interface{}{
		"type": models.TxTypeBookingPayment, "sourceId": "booking-1", "note": "booking cancelled",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.TxStatusVoid, body["transaction"].(map[string]interface{})["status"])

	status, body = s.do(t, http.MethodGet, "/api/wallet/balance", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1000), body["balance"])

	status, body = s.do(t, http.MethodGet, "/api/admin/wallet/user-1/transactions?limit=1", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["has_more"])

	status, body = s.do(t, http.MethodGet, "/api/wallet/transactions?cursor="+meta["next_cursor"].(string), s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = s.do(t, http.MethodPost, "/api/admin/reconcile", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["clean"])
}

func TestRejectsBadInput(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodPost, "/api/admin/wallet/credit", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 10.5, "sourceId": "adj-1",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "wallet_invalid_amount", body["code"])

	status, body = s.do(t, http.MethodPost, "/api/admin/wallet/credit", s.adminToken, map[string]interface{}{
		"amount": 10,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["fields"], "userId")
	assert.Contains(t, body["fields"], "sourceId")

	status, body = s.do(t, http.MethodGet, "/api/wallet/transactions?cursor=!!", s.userToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "wallet_invalid_cursor", body["code"])

	status, body = s.do(t, http.MethodPost, "/api/admin/wallet/void", s.adminToken, map[string]interface{}{
		"type": models.TxTypeBookingPayment, "sourceId": "missing",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "wallet_tx_not_found", body["code"])
}

func TestTopupFlow(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodGet, "/api/topups/packages", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["packages"], 2)

	status, body = s.do(t, http.MethodPost, "/api/topups", s.userToken, map[string]interface{}{"amount": 7000})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "topup_invalid_package", body["code"])

	status, body = s.do(t, http.MethodPost, "/api/topups", s.userToken, map[string]interface{}{"amount": 5000})
	require.Equal(t, fiber.StatusCreated, status)
	id := body["request"].(map[string]interface{})["id"].(string)

	status, body = s.do(t, http.MethodGet, "/api/admin/topups?status=pending", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["requests"], 1)

	status, _ = s.do(t, http.MethodPost, "/api/admin/topups/"+id+"/credit", s.adminToken, nil)
	require.Equal(t, fiber.StatusCreated, status)
	status, body = s.do(t, http.MethodPost, "/api/admin/topups/"+id+"/credit", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["replayed"])

	status, body = s.do(t, http.MethodPost, "/api/admin/topups/"+id+"/reject", s.adminToken, map[string]interface{}{"reason": "late"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "topup_already_processed", body["code"])

	status, body = s.do(t, http.MethodGet, "/api/wallet/balance", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(5000), body["balance"])

	status, body = s.do(t, http.MethodGet, "/api/topups", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["requests"], 1)
}

func TestRefundRoutes(t *testing.T) {
	s := newServer(t)
	departure := time.Date(2026, time.February, 15, 0, 0, 0, 0, refundquote.Location)
	submitted := time.Date(2026, time.February, 5, 9, 0, 0, 0, refundquote.Location)

	status, body := s.do(t, http.MethodPost, "/api/refunds/quote", s.userToken, map[string]interface{}{
		"amountPaid": 10000, "flagshipStartDate": departure, "submittedAt": submitted,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(4500), body["refund_amount"])
	assert.Equal(t, "10-14 days", body["tier_label"])

	status, body = s.do(t, http.MethodPost, "/api/admin/refunds/refund-1/payout", s.adminToken, map[string]interface{}{
		"userId": "user-1", "method": models.SettlementMethodWalletCredit, "amountPaid": 10000,
		"flagshipStartDate": departure, "submittedAt": submitted,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.SettlementStatusPosted, body["settlement"].(map[string]interface{})["status"])

	status, body = s.do(t, http.MethodPost, "/api/admin/refunds/refund-1/wallet-credit", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 4500,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["replayed"])

	status, body = s.do(t, http.MethodPost, "/api/admin/refunds/refund-2/wallet-credit", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 0,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "refund_credit_zero", body["code"])

	status, _ = s.do(t, http.MethodPut, "/api/admin/refunds/refund-1/settlements", s.adminToken, map[string]interface{}{
		"userId": "user-1", "amount": 4500, "method": models.SettlementMethodBankRefund, "status": models.SettlementStatusPending,
	})
	require.Equal(t, fiber.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/admin/refunds/refund-1/settlements", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["settlements"], 2)

	status, body = s.do(t, http.MethodGet, "/api/wallet/balance", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(4500), body["balance"])
}
