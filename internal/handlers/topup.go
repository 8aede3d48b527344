package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tripwallet/internal/services/topup"
	"tripwallet/internal/utils"
)

type TopupHandler struct {
	topups   *topup.Service
	exponent int32
	currency string
	logger   *logrus.Logger
}

func NewTopupHandler(topups *topup.Service, cfg topup.Config, logger *logrus.Logger) *TopupHandler {
	return &TopupHandler{
		topups:   topups,
		exponent: cfg.MinorUnitExponent,
		currency: cfg.Currency,
		logger:   logger,
	}
}

type packageView struct {
	Amount int64  `json:"amount"`
	Label  string `json:"label"`
}

func (h *TopupHandler) Packages(c *fiber.Ctx) error {
	packages := h.topups.Packages()
	out := make([]packageView, 0, len(packages))
	for _, p := range packages {
		out = append(out, packageView{Amount: p, Label: topup.FormatAmount(p, h.exponent, h.currency)})
	}
	return utils.Success(c, fiber.Map{"packages": out})
}

type topupInput struct {
	Amount float64 `json:"amount"`
}

func (h *TopupHandler) Create(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input topupInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}
	amount, err := minorUnits(input.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	res, err := h.topups.CreateRequest(c.UserContext(), claims.UserID, amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, res)
}

func (h *TopupHandler) ListMine(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	rows, err := h.topups.ListForUser(c.UserContext(), claims.UserID, queryLimit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"requests": rows})
}

func (h *TopupHandler) List(c *fiber.Ctx) error {
	rows, err := h.topups.ListRequests(c.UserContext(), c.Query("status"), queryLimit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"requests": rows})
}

func (h *TopupHandler) Credit(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	res, err := h.topups.MarkCredited(c.UserContext(), c.Params("id"), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if res.Replayed {
		return utils.Success(c, res)
	}
	return utils.Created(c, res)
}

type rejectInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *TopupHandler) Reject(c *fiber.Ctx) error {
	claims, ok := claimsOf(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input rejectInput
	if ok, err := parseBody(c, &input); !ok {
		return err
	}

	res, err := h.topups.RejectTopup(c.UserContext(), c.Params("id"), claims.UserID, input.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, res)
}

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
