package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/http/response"
)

// GET /errands/:id/stakeholders?role=
func (h *ErrandHandler) GetStakeholders(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	out, err := h.errands.GetStakeholders(c.Request.Context(), id, c.Query("role"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /errands/:id/stakeholders/:childId
func (h *ErrandHandler) GetStakeholder(c *gin.Context) {
	getChild(c, h.errands.GetStakeholder)
}

// GET /errands/:id/attachments/:childId
func (h *ErrandHandler) GetAttachment(c *gin.Context) {
	getChild(c, h.errands.GetAttachment)
}

// GET /errands/:id/decisions/:childId
func (h *ErrandHandler) GetDecision(c *gin.Context) {
	getChild(c, h.errands.GetDecision)
}

// GET /errands/:id/notes/:childId
func (h *ErrandHandler) GetNote(c *gin.Context) {
	getChild(c, h.errands.GetNote)
}

// PATCH /errands/:id/stakeholders/:childId
func (h *ErrandHandler) UpdateStakeholder(c *gin.Context) {
	writeChild[errand.StakeholderPatch](c, h.errands.UpdateStakeholder)
}

// PUT /errands/:id/stakeholders/:childId
func (h *ErrandHandler) ReplaceStakeholder(c *gin.Context) {
	writeChild[types.Stakeholder](c, h.errands.ReplaceStakeholder)
}

// PUT /errands/:id/attachments/:childId
func (h *ErrandHandler) ReplaceAttachment(c *gin.Context) {
	writeChild[types.Attachment](c, h.errands.ReplaceAttachment)
}

// PATCH /errands/:id/decisions/:childId
func (h *ErrandHandler) UpdateDecision(c *gin.Context) {
	writeChild[errand.DecisionPatch](c, h.errands.UpdateDecision)
}

// PUT /errands/:id/decisions/:childId
func (h *ErrandHandler) ReplaceDecision(c *gin.Context) {
	writeChild[types.Decision](c, h.errands.ReplaceDecision)
}

// PUT /errands/:id/notes/:childId
func (h *ErrandHandler) ReplaceNote(c *gin.Context) {
	writeChild[types.Note](c, h.errands.ReplaceNote)
}

func getChild[T any](c *gin.Context, get func(ctx context.Context, id, childID int64) (*T, error)) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	childID, ok := int64Param(c, "childId")
	if !ok {
		return
	}
	out, err := get(c.Request.Context(), id, childID)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, out)
}

// writeChild binds a body of type B and answers 204 once the write commits.
func writeChild[B, T any](c *gin.Context, write func(ctx context.Context, id, childID int64, body B) (*T, error)) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	childID, ok := int64Param(c, "childId")
	if !ok {
		return
	}
	var body B
	if !bindBody(c, &body) {
		return
	}
	if _, err := write(c.Request.Context(), id, childID, body); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}
