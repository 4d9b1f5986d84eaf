package services

import (
	"context"
	"slices"
	"strings"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
)

func (s *errandService) GetStakeholder(ctx context.Context, id, stakeholderID int64) (*types.Stakeholder, error) {
	const op = "CaseData.Errand.GetStakeholder"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return ownedChild(op, "stakeholder", id, e.Stakeholders, stakeholderID, func(c *types.Stakeholder) int64 { return c.ID })
}

// GetStakeholders lists the errand's stakeholders, narrowed to one role when
// role is set. A role nobody holds is reported as not found.
func (s *errandService) GetStakeholders(ctx context.Context, id int64, role string) ([]types.Stakeholder, error) {
	const op = "CaseData.Errand.GetStakeholders"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return e.Stakeholders, nil
	}
	out := make([]types.Stakeholder, 0, len(e.Stakeholders))
	for _, st := range e.Stakeholders {
		if slices.Contains(st.Roles, role) {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		return nil, domainagg.NotFound(op, "no stakeholders with role %s on errand %d", role, id)
	}
	return out, nil
}

func (s *errandService) GetAttachment(ctx context.Context, id, attachmentID int64) (*types.Attachment, error) {
	const op = "CaseData.Errand.GetAttachment"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return ownedChild(op, "attachment", id, e.Attachments, attachmentID, func(c *types.Attachment) int64 { return c.ID })
}

func (s *errandService) GetDecision(ctx context.Context, id, decisionID int64) (*types.Decision, error) {
	const op = "CaseData.Errand.GetDecision"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return ownedChild(op, "decision", id, e.Decisions, decisionID, func(c *types.Decision) int64 { return c.ID })
}

func (s *errandService) GetNote(ctx context.Context, id, noteID int64) (*types.Note, error) {
	const op = "CaseData.Errand.GetNote"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return ownedChild(op, "note", id, e.Notes, noteID, func(c *types.Note) int64 { return c.ID })
}

func (s *errandService) UpdateStakeholder(ctx context.Context, id, stakeholderID int64, patch errand.StakeholderPatch) (*types.Stakeholder, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.UpdateStakeholder", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Stakeholder, error) {
		return s.agg.UpdateStakeholder(ctx, domainagg.UpdateStakeholderInput{ErrandRef: ref, ChildID: stakeholderID, Patch: patch})
	})
}

func (s *errandService) ReplaceStakeholder(ctx context.Context, id, stakeholderID int64, st types.Stakeholder) (*types.Stakeholder, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceStakeholder", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Stakeholder, error) {
		return s.agg.ReplaceStakeholder(ctx, domainagg.ReplaceStakeholderInput{ErrandRef: ref, ChildID: stakeholderID, Stakeholder: st})
	})
}

func (s *errandService) ReplaceAttachment(ctx context.Context, id, attachmentID int64, a types.Attachment) (*types.Attachment, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceAttachment", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Attachment, error) {
		return s.agg.ReplaceAttachment(ctx, domainagg.ReplaceAttachmentInput{ErrandRef: ref, ChildID: attachmentID, Attachment: a})
	})
}

func (s *errandService) UpdateDecision(ctx context.Context, id, decisionID int64, patch errand.DecisionPatch) (*types.Decision, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.UpdateDecision", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Decision, error) {
		return s.agg.UpdateDecision(ctx, domainagg.UpdateDecisionInput{ErrandRef: ref, ChildID: decisionID, Patch: patch})
	})
}

func (s *errandService) ReplaceDecision(ctx context.Context, id, decisionID int64, d types.Decision) (*types.Decision, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceDecision", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Decision, error) {
		return s.agg.ReplaceDecision(ctx, domainagg.ReplaceDecisionInput{ErrandRef: ref, ChildID: decisionID, Decision: d})
	})
}

func (s *errandService) ReplaceNote(ctx context.Context, id, noteID int64, n types.Note) (*types.Note, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceNote", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Note, error) {
		return s.agg.ReplaceNote(ctx, domainagg.ReplaceNoteInput{ErrandRef: ref, ChildID: noteID, Note: n})
	})
}

func ownedChild[T any](op, kind string, errandID int64, items []T, childID int64, idOf func(*T) int64) (*T, error) {
	for i := range items {
		if idOf(&items[i]) == childID {
			return &items[i], nil
		}
	}
	return nil, domainagg.NotFound(op, "%s %d not found on errand %d", kind, childID, errandID)
}
