package topup

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tripwallet/internal/models"
	"tripwallet/internal/services/notification"
)

const reviewChannel = "topup-review"

// FormatAmount renders minor units in major units, e.g. 123456 with exponent
// 2 and currency "PKR" becomes "PKR 1234.56".
func FormatAmount(minor int64, exponent int32, currency string) string {
	if exponent < 0 {
		exponent = 0
	}
	return currency + " " + decimal.New(minor, -exponent).StringFixed(exponent)
}

func (s *Service) buildMessage(req *models.TopupRequest) notification.Message {
	amount := FormatAmount(req.PackageAmount, s.cfg.MinorUnitExponent, s.cfg.Currency)
	return notification.Message{
		Channel:   reviewChannel,
		Subject:   fmt.Sprintf("Wallet top-up request: %s", amount),
		Body: fmt.Sprintf(
			"User %s requested a wallet top-up of %s (request %s, %s). Credit or reject it once the payment is verified.",
			req.UserID, amount, req.ID, req.CreatedAt.Format("2006-01-02 15:04 MST"),
		),
		Reference: req.ID,
	}
}
