package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tripwallet/internal/models"
	"tripwallet/internal/services/wallet"
	"tripwallet/internal/utils"
	"tripwallet/internal/utils/pagination"
)

type WalletHandler struct {
	walletService wallet.Service
	logger        *logrus.Logger
}

func NewWalletHandler(walletService wallet.Service, logger *logrus.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	return h.balance(c, claims.UserID)
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	return h.transactions(c, claims.UserID)
}

func (h *WalletHandler) GetUserBalance(c *fiber.Ctx) error {
	return h.balance(c, c.Params("userId"))
}

func (h *WalletHandler) ListUserTransactions(c *fiber.Ctx) error {
	return h.transactions(c, c.Params("userId"))
}

func (h *WalletHandler) balance(c *fiber.Ctx, userID string) error {
	balance, err := h.walletService.GetBalance(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, balance)
}

func (h *WalletHandler) transactions(c *fiber.Ctx, userID string) error {
	p := pagination.ParseFromRequest(c)
	page, err := h.walletService.ListTransactions(c.UserContext(), userID, wallet.ListOptions{
		Limit:  p.Limit,
		Page:   p.Page,
		Cursor: p.Cursor,
		Type:   c.Query("type"),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, pagination.Response(page.Transactions, page.Page, page.Limit, page.NextCursor))
}

type postingInput struct {
	UserID     string                 `json:"userId" validate:"required,max=64"`
	Amount     float64                `json:"amount"`
	Type       string                 `json:"type" validate:"omitempty,oneof=topup_credit refund_credit booking_payment manual_adjustment"`
	SourceID   string                 `json:"sourceId" validate:"required,max=128"`
	SourceType string                 `json:"sourceType" validate:"omitempty,max=32"`
	ExpiresAt  *time.Time             `json:"expiresAt"`
	Note       string                 `json:"note" validate:"max=500"`
	Reason     string                 `json:"reason" validate:"max=200"`
	Extra      map[string]interface{} `json:"metadata"`
}

// Credit posts an admin credit. The type defaults to a manual adjustment.
func (h *WalletHandler) Credit(c *fiber.Ctx) error {
	return h.post(c, models.DirectionCredit)
}

func (h *WalletHandler) Debit(c *fiber.Ctx) error {
	return h.post(c, models.DirectionDebit)
}

func (h *WalletHandler) post(c *fiber.Ctx, direction string) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input postingInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	amount, err := minorUnits(input.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	req := wallet.PostRequest{
		UserID:     input.UserID,
		Amount:     amount,
		Type:       input.Type,
		SourceID:   input.SourceID,
		SourceType: input.SourceType,
		ExpiresAt:  input.ExpiresAt,
		PostedBy:   claims.UserID,
		Note:       input.Note,
		Metadata: models.TxMetadata{
			SourceRef: input.SourceID,
			ActorID:   claims.UserID,
			ActorRole: claims.Role,
			Reason:    input.Reason,
			Extra:     input.Extra,
		},
	}
	if req.Type == "" {
		req.Type = models.TxTypeManualAdjustment
	}
	if req.SourceType == "" {
		req.SourceType = models.SourceTypeAdmin
	}

	var res *wallet.PostResult
	if direction == models.DirectionCredit {
		res, err = h.walletService.Credit(c.UserContext(), req)
	} else {
		res, err = h.walletService.Debit(c.UserContext(), req)
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondPosting(c, res)
}

type voidInput struct {
	Type     string `json:"type" validate:"required,oneof=topup_credit refund_credit booking_payment manual_adjustment"`
	SourceID string `json:"sourceId" validate:"required,max=128"`
	Note     string `json:"note" validate:"max=500"`
}

func (h *WalletHandler) Void(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input voidInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	res, err := h.walletService.VoidBySource(c.UserContext(), wallet.VoidRequest{
		Type:     input.Type,
		SourceID: input.SourceID,
		VoidedBy: claims.UserID,
		Note:     input.Note,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, res)
}

// respondPosting answers 201 for money that just moved and 200 for a replay.
func respondPosting(c *fiber.Ctx, res *wallet.PostResult) error {
	if res.Replayed {
		return utils.Success(c, res)
	}
	return utils.Created(c, res)
}
