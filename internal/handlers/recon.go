package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tripwallet/internal/services/recon"
	"tripwallet/internal/utils"
)

type ReconHandler struct {
	reconciler *recon.Reconciler
	logger     *logrus.Logger
}

func NewReconHandler(reconciler *recon.Reconciler, logger *logrus.Logger) *ReconHandler {
	return &ReconHandler{reconciler: reconciler, logger: logger}
}

// Run reconciles on demand and returns the full report.
func (h *ReconHandler) Run(c *fiber.Ctx) error {
	report, err := h.reconciler.Run(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{
		"clean":  report.Clean(),
		"report": report,
	})
}
