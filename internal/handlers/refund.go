package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	apperrors "tripwallet/internal/errors"
	"tripwallet/internal/models"
	"tripwallet/internal/services/refundquote"
	"tripwallet/internal/services/settlement"
	"tripwallet/internal/utils"
)

type RefundHandler struct {
	settlements *settlement.Service
	quotes      *refundquote.Calculator
	logger      *logrus.Logger
}

func NewRefundHandler(settlements *settlement.Service, quotes *refundquote.Calculator, logger *logrus.Logger) *RefundHandler {
	return &RefundHandler{
		settlements: settlements,
		quotes:      quotes,
		logger:      logger,
	}
}

type quoteInput struct {
	AmountPaid        float64    `json:"amountPaid"`
	FlagshipStartDate time.Time  `json:"flagshipStartDate" validate:"required"`
	SubmittedAt       *time.Time `json:"submittedAt"`
}

// Quote prices a cancellation. The submission time defaults to now.
func (h *RefundHandler) Quote(c *fiber.Ctx) error {
	var input quoteInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	paid, err := minorUnits(input.AmountPaid)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	submitted := h.quotes.Now()
	if input.SubmittedAt != nil {
		submitted = *input.SubmittedAt
	}
	return utils.Success(c, h.quotes.Compute(input.FlagshipStartDate, submitted, paid))
}

type settlementInput struct {
	UserID   string                 `json:"userId" validate:"required,max=64"`
	Amount   float64                `json:"amount"`
	Method   string                 `json:"method" validate:"required,oneof=wallet_credit bank_refund"`
	Status   string                 `json:"status" validate:"required,oneof=pending posted void"`
	PostedAt *time.Time             `json:"postedAt"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *RefundHandler) PutSettlement(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input settlementInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	amount, err := minorUnits(input.Amount)
	if err != nil {
		return respondError(c, h.logger, apperrors.ErrSettlementInvalid.WithMessage("amount must be a whole number"))
	}

	in := settlement.SettlementInput{
		RefundID: c.Params("refundId"),
		UserID:   input.UserID,
		Amount:   amount,
		Method:   input.Method,
		Status:   input.Status,
		PostedAt: input.PostedAt,
		Metadata: models.JSON(input.Metadata),
	}
	if input.Status == models.SettlementStatusPosted {
		in.PostedBy = claims.UserID
	}

	row, err := h.settlements.EnsureSettlement(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, row)
}

func (h *RefundHandler) ListSettlements(c *fiber.Ctx) error {
	rows, err := h.settlements.ListSettlements(c.UserContext(), c.Params("refundId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"settlements": rows})
}

type walletCreditInput struct {
	UserID string  `json:"userId" validate:"required,max=64"`
	Amount float64 `json:"amount"`
}

func (h *RefundHandler) WalletCredit(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input walletCreditInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	amount, err := minorUnits(input.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	res, err := h.settlements.PostToWallet(c.UserContext(), c.Params("refundId"), input.UserID, amount, claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondPosting(c, res)
}

type payoutInput struct {
	UserID            string     `json:"userId" validate:"required,max=64"`
	Method            string     `json:"method" validate:"required,oneof=wallet_credit bank_refund"`
	AmountPaid        float64    `json:"amountPaid"`
	FlagshipStartDate time.Time  `json:"flagshipStartDate" validate:"required"`
	SubmittedAt       *time.Time `json:"submittedAt"`
}

func (h *RefundHandler) Payout(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input payoutInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	paid, err := minorUnits(input.AmountPaid)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	submitted := h.quotes.Now()
	if input.SubmittedAt != nil {
		submitted = *input.SubmittedAt
	}

	res, err := h.settlements.PayoutRefund(c.UserContext(), settlement.PayoutRequest{
		RefundID:          c.Params("refundId"),
		UserID:            input.UserID,
		Method:            input.Method,
		AmountPaid:        paid,
		FlagshipStartDate: input.FlagshipStartDate,
		SubmittedAt:       submitted,
		PostedBy:          claims.UserID,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, res)
}
