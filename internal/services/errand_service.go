package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// ErrandService is the entry point for every errand operation. Writes go
// through the errand aggregate with the attribution found on ctx; after a
// write commits the errand's process is informed.
type ErrandService interface {
	CreateErrand(ctx context.Context, e *types.Errand) (*types.Errand, error)
	GetErrand(ctx context.Context, id int64) (*types.Errand, error)
	GetDecisions(ctx context.Context, id int64) ([]types.Decision, error)

	PatchErrand(ctx context.Context, id int64, patch errand.Patch) (*types.Errand, error)

	AddStakeholder(ctx context.Context, id int64, s types.Stakeholder) (*types.Stakeholder, error)
	AddAttachment(ctx context.Context, id int64, a types.Attachment) (*types.Attachment, error)
	AddDecision(ctx context.Context, id int64, d types.Decision) (*types.Decision, error)
	AddNote(ctx context.Context, id int64, n types.Note) (*types.Note, error)
	AddStatus(ctx context.Context, id int64, st types.Status) (*types.Errand, error)
	UpdateNote(ctx context.Context, id, noteID int64, patch errand.NotePatch) (*types.Note, error)

	// Single children are addressed through their errand; a child owned by
	// another errand is reported as not found.
	GetStakeholder(ctx context.Context, id, stakeholderID int64) (*types.Stakeholder, error)
	GetStakeholders(ctx context.Context, id int64, role string) ([]types.Stakeholder, error)
	GetAttachment(ctx context.Context, id, attachmentID int64) (*types.Attachment, error)
	GetDecision(ctx context.Context, id, decisionID int64) (*types.Decision, error)
	GetNote(ctx context.Context, id, noteID int64) (*types.Note, error)

	UpdateStakeholder(ctx context.Context, id, stakeholderID int64, patch errand.StakeholderPatch) (*types.Stakeholder, error)
	ReplaceStakeholder(ctx context.Context, id, stakeholderID int64, st types.Stakeholder) (*types.Stakeholder, error)
	ReplaceAttachment(ctx context.Context, id, attachmentID int64, a types.Attachment) (*types.Attachment, error)
	UpdateDecision(ctx context.Context, id, decisionID int64, patch errand.DecisionPatch) (*types.Decision, error)
	ReplaceDecision(ctx context.Context, id, decisionID int64, d types.Decision) (*types.Decision, error)
	ReplaceNote(ctx context.Context, id, noteID int64, n types.Note) (*types.Note, error)

	ReplaceStakeholders(ctx context.Context, id int64, list []types.Stakeholder) (*types.Errand, error)
	ReplaceAttachments(ctx context.Context, id int64, list []types.Attachment) (*types.Errand, error)
	ReplaceStatuses(ctx context.Context, id int64, list []types.Status) (*types.Errand, error)

	DeleteStakeholder(ctx context.Context, id, childID int64) error
	DeleteAttachment(ctx context.Context, id, childID int64) error
	DeleteDecision(ctx context.Context, id, childID int64) error
	DeleteNote(ctx context.Context, id, childID int64) error

	GetMessageIDs(ctx context.Context, id int64) ([]string, error)
	AppendMessageIDs(ctx context.Context, id int64, ids []string) (*types.Errand, error)
}

type errandService struct {
	log     *logger.Logger
	errands repos.ErrandRepo
	agg     domainagg.ErrandAggregate
	process ProcessSync
	metrics *observability.Metrics
}

func NewErrandService(
	baseLog *logger.Logger,
	errands repos.ErrandRepo,
	agg domainagg.ErrandAggregate,
	process ProcessSync,
	metrics *observability.Metrics,
) ErrandService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if process == nil {
		process = NewDisabledProcessSync(baseLog)
	}
	return &errandService{
		log:     baseLog.With("service", "ErrandService"),
		errands: errands,
		agg:     agg,
		process: process,
		metrics: metrics,
	}
}

func (s *errandService) CreateErrand(ctx context.Context, e *types.Errand) (out *types.Errand, err error) {
	const op = "CaseData.Errand.Create"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if e == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing errand", nil)
	}
	actor := ctxutil.GetAttribution(ctx)
	created, err := s.agg.Create(ctx, domainagg.CreateErrandInput{Errand: e, Actor: actor})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("errand.id", created.ID), attribute.String("errand.number", created.ErrandNumber))

	processID, err := s.process.StartProcess(ctx, created.ID)
	if err != nil {
		return nil, s.compensateCreate(ctx, op, created, actor, err)
	}
	s.metrics.IncErrandCreated(string(created.CaseType))
	if processID == "" {
		return created, nil
	}
	return s.agg.AttachProcess(ctx, domainagg.AttachProcessInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: created.ID, Actor: actor},
		ProcessID: processID,
	})
}

// compensateCreate removes an errand whose process could not be started and
// reports the start failure as service_unavailable.
func (s *errandService) compensateCreate(ctx context.Context, op string, created *types.Errand, actor ctxutil.Attribution, cause error) error {
	s.metrics.IncCompensation()
	log := s.log.With(ctxutil.LogFields(ctx)...)
	log.Warn("Process start failed; removing errand", "errand_id", created.ID, "errand_number", created.ErrandNumber, "error", cause)

	unavailable := domainagg.NewError(domainagg.CodeServiceUnavailable, op, "errand process could not be started", cause)
	delCtx := context.WithoutCancel(ctx)
	if delErr := s.agg.Delete(delCtx, domainagg.ErrandRef{ErrandID: created.ID, Actor: actor}); delErr != nil {
		log.Error("Failed to remove errand after process start failure", "errand_id", created.ID, "error", delErr)
		return errors.Join(unavailable, delErr)
	}
	return unavailable
}

func (s *errandService) GetErrand(ctx context.Context, id int64) (*types.Errand, error) {
	return s.load(ctx, "CaseData.Errand.Get", id)
}

func (s *errandService) GetDecisions(ctx context.Context, id int64) ([]types.Decision, error) {
	const op = "CaseData.Errand.GetDecisions"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if len(e.Decisions) == 0 {
		return nil, domainagg.NotFound(op, "no decisions found for errand %d", id)
	}
	return e.Decisions, nil
}

func (s *errandService) GetMessageIDs(ctx context.Context, id int64) ([]string, error) {
	const op = "CaseData.Errand.GetMessageIDs"
	e, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if len(e.MessageIDs) == 0 {
		return nil, domainagg.NotFound(op, "no message ids found for errand %d", id)
	}
	return e.MessageIDs, nil
}

func (s *errandService) load(ctx context.Context, op string, id int64) (*types.Errand, error) {
	if s == nil || s.errands == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "errand service not configured", nil)
	}
	e, err := s.errands.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if e == nil {
		return nil, domainagg.NotFound(op, "errand not found: %d", id)
	}
	return e, nil
}

func (s *errandService) PatchErrand(ctx context.Context, id int64, patch errand.Patch) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.Patch", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.Patch(ctx, domainagg.PatchErrandInput{ErrandRef: ref, Patch: patch})
	})
}

func (s *errandService) AddStakeholder(ctx context.Context, id int64, st types.Stakeholder) (*types.Stakeholder, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AddStakeholder", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Stakeholder, error) {
		return s.agg.AddStakeholder(ctx, domainagg.AddStakeholderInput{ErrandRef: ref, Stakeholder: st})
	})
}

func (s *errandService) AddAttachment(ctx context.Context, id int64, a types.Attachment) (*types.Attachment, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AddAttachment", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Attachment, error) {
		return s.agg.AddAttachment(ctx, domainagg.AddAttachmentInput{ErrandRef: ref, Attachment: a})
	})
}

func (s *errandService) AddDecision(ctx context.Context, id int64, d types.Decision) (*types.Decision, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AddDecision", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Decision, error) {
		return s.agg.AddDecision(ctx, domainagg.AddDecisionInput{ErrandRef: ref, Decision: d})
	})
}

func (s *errandService) AddNote(ctx context.Context, id int64, n types.Note) (*types.Note, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AddNote", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Note, error) {
		return s.agg.AddNote(ctx, domainagg.AddNoteInput{ErrandRef: ref, Note: n})
	})
}

func (s *errandService) AddStatus(ctx context.Context, id int64, st types.Status) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AddStatus", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.AddStatus(ctx, domainagg.AddStatusInput{ErrandRef: ref, Status: st})
	})
}

func (s *errandService) UpdateNote(ctx context.Context, id, noteID int64, patch errand.NotePatch) (*types.Note, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.UpdateNote", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Note, error) {
		return s.agg.UpdateNote(ctx, domainagg.UpdateNoteInput{ErrandRef: ref, NoteID: noteID, Patch: patch})
	})
}

func (s *errandService) ReplaceStakeholders(ctx context.Context, id int64, list []types.Stakeholder) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceStakeholders", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.ReplaceStakeholders(ctx, domainagg.ReplaceStakeholdersInput{ErrandRef: ref, Stakeholders: list})
	})
}

func (s *errandService) ReplaceAttachments(ctx context.Context, id int64, list []types.Attachment) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceAttachments", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.ReplaceAttachments(ctx, domainagg.ReplaceAttachmentsInput{ErrandRef: ref, Attachments: list})
	})
}

func (s *errandService) ReplaceStatuses(ctx context.Context, id int64, list []types.Status) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.ReplaceStatuses", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.ReplaceStatuses(ctx, domainagg.ReplaceStatusesInput{ErrandRef: ref, Statuses: list})
	})
}

func (s *errandService) DeleteStakeholder(ctx context.Context, id, childID int64) error {
	return s.removeChild(ctx, "CaseData.Errand.DeleteStakeholder", id, childID, s.agg.RemoveStakeholder)
}

func (s *errandService) DeleteAttachment(ctx context.Context, id, childID int64) error {
	return s.removeChild(ctx, "CaseData.Errand.DeleteAttachment", id, childID, s.agg.RemoveAttachment)
}

func (s *errandService) DeleteDecision(ctx context.Context, id, childID int64) error {
	return s.removeChild(ctx, "CaseData.Errand.DeleteDecision", id, childID, s.agg.RemoveDecision)
}

func (s *errandService) DeleteNote(ctx context.Context, id, childID int64) error {
	return s.removeChild(ctx, "CaseData.Errand.DeleteNote", id, childID, s.agg.RemoveNote)
}

func (s *errandService) removeChild(ctx context.Context, op string, id, childID int64, remove func(context.Context, domainagg.RemoveChildInput) error) error {
	_, err := mutateErrand(s, ctx, op, id, func(ctx context.Context, ref domainagg.ErrandRef) (struct{}, error) {
		return struct{}{}, remove(ctx, domainagg.RemoveChildInput{ErrandRef: ref, ChildID: childID})
	})
	return err
}

func (s *errandService) AppendMessageIDs(ctx context.Context, id int64, ids []string) (*types.Errand, error) {
	return mutateErrand(s, ctx, "CaseData.Errand.AppendMessageIDs", id, func(ctx context.Context, ref domainagg.ErrandRef) (*types.Errand, error) {
		return s.agg.AppendMessageIDs(ctx, domainagg.AppendMessageIDsInput{ErrandRef: ref, MessageIDs: ids})
	})
}

// mutateErrand runs one aggregate write as the ctx actor and then signals the
// errand's process. A failed signal is returned as service_unavailable; the
// committed write is kept and its result returned alongside the error.
func mutateErrand[T any](s *errandService, ctx context.Context, op string, id int64, write func(context.Context, domainagg.ErrandRef) (T, error)) (out T, err error) {
	ctx, span := observability.StartSpan(ctx, op, attribute.Int64("errand.id", id))
	defer func() { observability.EndSpan(span, err) }()

	ref := domainagg.ErrandRef{ErrandID: id, Actor: ctxutil.GetAttribution(ctx)}
	out, err = write(ctx, ref)
	if err != nil {
		return out, err
	}
	if perr := s.process.UpdateProcess(ctx, id); perr != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Warn("Process update failed after committed write", "op", op, "errand_id", id, "error", perr)
		return out, domainagg.NewError(domainagg.CodeServiceUnavailable, op, "errand process could not be updated", perr)
	}
	return out, nil
}
