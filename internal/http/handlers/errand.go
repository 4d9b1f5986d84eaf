package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/http/response"
	"github.com/OpenSundsvall/api-service-case-data/internal/services"
)

type ErrandHandler struct {
	errands services.ErrandService
}

func NewErrandHandler(errands services.ErrandService) *ErrandHandler {
	return &ErrandHandler{errands: errands}
}

// POST /errands
func (h *ErrandHandler) CreateErrand(c *gin.Context) {
	var in types.Errand
	if !bindBody(c, &in) {
		return
	}
	out, err := h.errands.CreateErrand(c.Request.Context(), &in)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondCreated(c, "errands", out.ID)
}

// GET /errands/:id
func (h *ErrandHandler) GetErrand(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	out, err := h.errands.GetErrand(c.Request.Context(), id)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PATCH /errands/:id
func (h *ErrandHandler) PatchErrand(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var patch errand.Patch
	if !bindBody(c, &patch) {
		return
	}
	if _, err := h.errands.PatchErrand(c.Request.Context(), id, patch); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /errands/:id/decisions
func (h *ErrandHandler) GetDecisions(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	out, err := h.errands.GetDecisions(c.Request.Context(), id)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PATCH /errands/:id/stakeholders
func (h *ErrandHandler) AddStakeholder(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var in types.Stakeholder
	if !bindBody(c, &in) {
		return
	}
	out, err := h.errands.AddStakeholder(c.Request.Context(), id, in)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondCreated(c, "stakeholders", out.ID)
}

// PATCH /errands/:id/attachments
func (h *ErrandHandler) AddAttachment(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var in types.Attachment
	if !bindBody(c, &in) {
		return
	}
	out, err := h.errands.AddAttachment(c.Request.Context(), id, in)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondCreated(c, "attachments", out.ID)
}

// PATCH /errands/:id/decisions
func (h *ErrandHandler) AddDecision(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var in types.Decision
	if !bindBody(c, &in) {
		return
	}
	out, err := h.errands.AddDecision(c.Request.Context(), id, in)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondCreated(c, "decisions", out.ID)
}

// PATCH /errands/:id/notes
func (h *ErrandHandler) AddNote(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var in types.Note
	if !bindBody(c, &in) {
		return
	}
	out, err := h.errands.AddNote(c.Request.Context(), id, in)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondCreated(c, "notes", out.ID)
}

// PATCH /errands/:id/notes/:childId
func (h *ErrandHandler) UpdateNote(c *gin.Context) {
	writeChild[errand.NotePatch](c, h.errands.UpdateNote)
}

// PATCH /errands/:id/statuses
func (h *ErrandHandler) AddStatus(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var in types.Status
	if !bindBody(c, &in) {
		return
	}
	if _, err := h.errands.AddStatus(c.Request.Context(), id, in); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}

// PUT /errands/:id/stakeholders
func (h *ErrandHandler) ReplaceStakeholders(c *gin.Context) {
	replaceList(c, h.errands.ReplaceStakeholders)
}

// PUT /errands/:id/attachments
func (h *ErrandHandler) ReplaceAttachments(c *gin.Context) {
	replaceList(c, h.errands.ReplaceAttachments)
}

// PUT /errands/:id/statuses
func (h *ErrandHandler) ReplaceStatuses(c *gin.Context) {
	replaceList(c, h.errands.ReplaceStatuses)
}

// DELETE /errands/:id/stakeholders/:childId
func (h *ErrandHandler) DeleteStakeholder(c *gin.Context) {
	deleteChild(c, h.errands.DeleteStakeholder)
}

// DELETE /errands/:id/attachments/:childId
func (h *ErrandHandler) DeleteAttachment(c *gin.Context) {
	deleteChild(c, h.errands.DeleteAttachment)
}

// DELETE /errands/:id/decisions/:childId
func (h *ErrandHandler) DeleteDecision(c *gin.Context) {
	deleteChild(c, h.errands.DeleteDecision)
}

// DELETE /errands/:id/notes/:childId
func (h *ErrandHandler) DeleteNote(c *gin.Context) {
	deleteChild(c, h.errands.DeleteNote)
}

// GET /errands/:id/message-ids
func (h *ErrandHandler) GetMessageIDs(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	out, err := h.errands.GetMessageIDs(c.Request.Context(), id)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PATCH /errands/:id/message-ids
func (h *ErrandHandler) AppendMessageIDs(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var ids []string
	if !bindBody(c, &ids) {
		return
	}
	if len(ids) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errEmptyBody)
		return
	}
	if _, err := h.errands.AppendMessageIDs(c.Request.Context(), id, ids); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}

func replaceList[T any](c *gin.Context, replace func(ctx context.Context, id int64, list []T) (*types.Errand, error)) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var list []T
	if !bindBody(c, &list) {
		return
	}
	if _, err := replace(c.Request.Context(), id, list); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}

func deleteChild(c *gin.Context, remove func(ctx context.Context, id, childID int64) error) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	childID, ok := int64Param(c, "childId")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), id, childID); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondNoContent(c)
}
