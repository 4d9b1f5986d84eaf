package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/http/response"
	"github.com/OpenSundsvall/api-service-case-data/internal/services"
)

type HistoryHandler struct {
	history services.HistoryService
}

func NewHistoryHandler(history services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// EntityHistory serves GET /{entity}/:id/history for one entity collection.
func (h *HistoryHandler) EntityHistory(entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		changes, err := h.history.GetHistory(c.Request.Context(), entity, id)
		if err != nil {
			response.RespondFailure(c, err)
			return
		}
		response.RespondOK(c, changes)
	}
}
