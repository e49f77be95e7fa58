package handlers

import (
	"errors"

	"finhistory/internal/services/history"
	"finhistory/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type HistoryHandler struct {
	historyService history.Service
}

func NewHistoryHandler(historyService history.Service) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetHistory serves GET /api/transaction?userId=<id>.
func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	// Histories change between polls; never let a proxy serve a stale copy.
	c.Set(fiber.HeaderCacheControl, "no-store")

	userID, err := history.ParseUserID(c.Query("userId"))
	if err != nil {
		return utils.BadRequest(c, history.MessageInvalidUserID)
	}

	envelope, err := h.historyService.GetHistory(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, history.ErrInvalidUserID) {
			return utils.BadRequest(c, history.MessageInvalidUserID)
		}
		return utils.Respond(c, history.StatusFor(err), envelope)
	}

	return utils.Success(c, envelope)
}
