package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	apperrors "tripwallet/internal/errors"
	"tripwallet/internal/models"
	"tripwallet/internal/utils"
	"tripwallet/internal/utils/validation"
)

// respondError answers with the DomainError wrapped in err, or 500 for
// anything the caller cannot act on.
func respondError(c *fiber.Ctx, logger *logrus.Logger, err error) error {
	if de, ok := apperrors.As(err); ok {
		return utils.DomainError(c, de)
	}
	logger.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).WithError(err).Error("request failed")
	return utils.InternalError(c, "internal server error")
}

// parseBody decodes and validates the request body into dst. It writes the
// error response itself and reports whether the handler should continue.
func parseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.DomainError(c, apperrors.ErrInvalidRequest.WithMessage("invalid request body"))
	}
	if fields := validation.Struct(dst); fields != nil {
		return false, utils.ValidationFailed(c, fields)
	}
	return true, nil
}

// minorUnits converts a JSON number into an integer amount. Fractions,
// NaN and values outside int64 are rejected.
func minorUnits(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return 0, apperrors.ErrInvalidAmount
	}
	return int64(v), nil
}

func claimsOf(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, err := utils.GetUserClaims(c)
	return claims, err == nil
}
