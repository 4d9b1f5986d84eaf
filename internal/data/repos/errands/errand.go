package errands

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type ErrandRepo interface {
	// Create inserts the errand together with every owned child.
	Create(dbc dbctx.Context, e *types.Errand) error

	// GetByID loads the complete aggregate. It returns nil, nil when missing.
	GetByID(dbc dbctx.Context, id int64) (*types.Errand, error)

	// ListNumbersByPrefix returns every stored errand number starting with prefix.
	ListNumbersByPrefix(dbc dbctx.Context, prefix string) ([]string, error)

	// Delete removes the errand and everything it owns.
	Delete(dbc dbctx.Context, id int64) (bool, error)

	InsertStakeholder(dbc dbctx.Context, errandID int64, s *types.Stakeholder) error
	InsertFacility(dbc dbctx.Context, errandID int64, f *types.Facility) error
	InsertAttachment(dbc dbctx.Context, errandID int64, a *types.Attachment) error
	InsertDecision(dbc dbctx.Context, errandID int64, d *types.Decision) error
	InsertNote(dbc dbctx.Context, errandID int64, n *types.Note) error

	// Update* write a child's content columns and bump its version. They
	// report false when the child does not belong to the errand.
	UpdateStakeholder(dbc dbctx.Context, errandID int64, s *types.Stakeholder) (bool, error)
	UpdateAttachment(dbc dbctx.Context, errandID int64, a *types.Attachment) (bool, error)
	UpdateNote(dbc dbctx.Context, errandID int64, n *types.Note) (bool, error)
	// UpdateDecision writes the decision's own columns only; decider, appeal
	// and attachments are left as stored.
	UpdateDecision(dbc dbctx.Context, errandID int64, d *types.Decision) (bool, error)

	// Delete* report false when no child with that id belongs to the errand.
	DeleteStakeholder(dbc dbctx.Context, errandID, id int64) (bool, error)
	DeleteAttachment(dbc dbctx.Context, errandID, id int64) (bool, error)
	DeleteDecision(dbc dbctx.Context, errandID, id int64) (bool, error)
	DeleteNote(dbc dbctx.Context, errandID, id int64) (bool, error)

	// DeleteAll* drop the errand's whole collection before a replacement.
	DeleteAllStakeholders(dbc dbctx.Context, errandID int64) error
	DeleteAllAttachments(dbc dbctx.Context, errandID int64) error
}

type errandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewErrandRepo(db *gorm.DB, baseLog *logger.Logger) ErrandRepo {
	return &errandRepo{db: db, log: baseLog.With("repo", "ErrandRepo")}
}

func (r *errandRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func byID(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

func (r *errandRepo) Create(dbc dbctx.Context, e *types.Errand) error {
	if e == nil {
		return nil
	}
	return r.tx(dbc).Create(e).Error
}

func (r *errandRepo) GetByID(dbc dbctx.Context, id int64) (*types.Errand, error) {
	if id <= 0 {
		return nil, nil
	}
	var rows []*types.Errand
	err := r.tx(dbc).
		Preload("Stakeholders", byID).
		Preload("Facilities", byID).
		Preload("Attachments", byID).
		Preload("Notes", byID).
		Preload("Decisions", byID).
		Preload("Decisions.DecidedBy").
		Preload("Decisions.Attachments", byID).
		Preload("Decisions.Appeal").
		Preload("Decisions.Appeal.AppealedBy").
		Preload("Decisions.Appeal.JudicialAuthorisation").
		Preload("Decisions.Appeal.Attachments", byID).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *errandRepo) ListNumbersByPrefix(dbc dbctx.Context, prefix string) ([]string, error) {
	var out []string
	if prefix == "" {
		return out, nil
	}
	err := r.tx(dbc).
		Model(&types.Errand{}).
		Where("errand_number LIKE ?", prefix+"%").
		Pluck("errand_number", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *errandRepo) Delete(dbc dbctx.Context, id int64) (bool, error) {
	t := r.tx(dbc)
	var decisionIDs []int64
	if err := t.Model(&types.Decision{}).Where("errand_id = ?", id).Pluck("id", &decisionIDs).Error; err != nil {
		return false, err
	}
	if err := deleteDecisions(t, decisionIDs); err != nil {
		return false, err
	}
	for _, model := range []any{&types.Stakeholder{}, &types.Facility{}, &types.Attachment{}, &types.Note{}} {
		if err := t.Where("errand_id = ?", id).Delete(model).Error; err != nil {
			return false, err
		}
	}
	res := t.Where("id = ?", id).Delete(&types.Errand{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *errandRepo) InsertStakeholder(dbc dbctx.Context, errandID int64, s *types.Stakeholder) error {
	s.ErrandID = &errandID
	return r.tx(dbc).Omit(clause.Associations).Create(s).Error
}

func (r *errandRepo) InsertFacility(dbc dbctx.Context, errandID int64, f *types.Facility) error {
	f.ErrandID = &errandID
	return r.tx(dbc).Omit(clause.Associations).Create(f).Error
}

func (r *errandRepo) InsertAttachment(dbc dbctx.Context, errandID int64, a *types.Attachment) error {
	a.ErrandID = &errandID
	return r.tx(dbc).Omit(clause.Associations).Create(a).Error
}

// InsertDecision also inserts the decider, the appeal and their attachments.
func (r *errandRepo) InsertDecision(dbc dbctx.Context, errandID int64, d *types.Decision) error {
	d.ErrandID = &errandID
	return r.tx(dbc).Create(d).Error
}

func (r *errandRepo) InsertNote(dbc dbctx.Context, errandID int64, n *types.Note) error {
	n.ErrandID = &errandID
	return r.tx(dbc).Omit(clause.Associations).Create(n).Error
}

func (r *errandRepo) UpdateStakeholder(dbc dbctx.Context, errandID int64, s *types.Stakeholder) (bool, error) {
	return updateOwned(r.tx(dbc), &types.Stakeholder{}, errandID, s.ID, map[string]any{
		"updated":              s.Updated,
		"type":                 s.Type,
		"first_name":           s.FirstName,
		"last_name":            s.LastName,
		"person_id":            s.PersonID,
		"organization_name":    s.OrganizationName,
		"organization_number":  s.OrganizationNumber,
		"authorized_signatory": s.AuthorizedSignatory,
		"ad_account":           s.AdAccount,
		"roles":                s.Roles,
		"addresses":            s.Addresses,
		"contact_information":  s.ContactInformation,
		"extra_parameters":     s.ExtraParameters,
	})
}

func (r *errandRepo) UpdateAttachment(dbc dbctx.Context, errandID int64, a *types.Attachment) (bool, error) {
	return updateOwned(r.tx(dbc), &types.Attachment{}, errandID, a.ID, map[string]any{
		"updated":          a.Updated,
		"category":         a.Category,
		"name":             a.Name,
		"note":             a.Note,
		"extension":        a.Extension,
		"mime_type":        a.MimeType,
		"file":             a.File,
		"extra_parameters": a.ExtraParameters,
	})
}

func (r *errandRepo) UpdateNote(dbc dbctx.Context, errandID int64, n *types.Note) (bool, error) {
	return updateOwned(r.tx(dbc), &types.Note{}, errandID, n.ID, map[string]any{
		"updated":          n.Updated,
		"title":            n.Title,
		"text":             n.Text,
		"updated_by":       n.UpdatedBy,
		"extra_parameters": n.ExtraParameters,
	})
}

func (r *errandRepo) UpdateDecision(dbc dbctx.Context, errandID int64, d *types.Decision) (bool, error) {
	return updateOwned(r.tx(dbc), &types.Decision{}, errandID, d.ID, map[string]any{
		"updated":          d.Updated,
		"decision_type":    d.DecisionType,
		"decision_outcome": d.DecisionOutcome,
		"description":      d.Description,
		"law":              d.Law,
		"decided_at":       d.DecidedAt,
		"valid_from":       d.ValidFrom,
		"valid_to":         d.ValidTo,
		"extra_parameters": d.ExtraParameters,
	})
}

func (r *errandRepo) DeleteStakeholder(dbc dbctx.Context, errandID, id int64) (bool, error) {
	return deleteOwned(r.tx(dbc), &types.Stakeholder{}, errandID, id)
}

func (r *errandRepo) DeleteAttachment(dbc dbctx.Context, errandID, id int64) (bool, error) {
	return deleteOwned(r.tx(dbc), &types.Attachment{}, errandID, id)
}

func (r *errandRepo) DeleteNote(dbc dbctx.Context, errandID, id int64) (bool, error) {
	return deleteOwned(r.tx(dbc), &types.Note{}, errandID, id)
}

func (r *errandRepo) DeleteDecision(dbc dbctx.Context, errandID, id int64) (bool, error) {
	t := r.tx(dbc)
	var count int64
	if err := t.Model(&types.Decision{}).Where("id = ? AND errand_id = ?", id, errandID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	if err := deleteDecisions(t, []int64{id}); err != nil {
		return false, err
	}
	return true, nil
}

func (r *errandRepo) DeleteAllStakeholders(dbc dbctx.Context, errandID int64) error {
	return r.tx(dbc).Where("errand_id = ?", errandID).Delete(&types.Stakeholder{}).Error
}

func (r *errandRepo) DeleteAllAttachments(dbc dbctx.Context, errandID int64) error {
	return r.tx(dbc).Where("errand_id = ?", errandID).Delete(&types.Attachment{}).Error
}

func updateOwned(t *gorm.DB, model any, errandID, id int64, columns map[string]any) (bool, error) {
	columns["version"] = gorm.Expr("version + 1")
	res := t.Model(model).Where("id = ? AND errand_id = ?", id, errandID).Updates(columns)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func deleteOwned(t *gorm.DB, model any, errandID, id int64) (bool, error) {
	res := t.Where("id = ? AND errand_id = ?", id, errandID).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// deleteDecisions removes decisions with their appeals, the stakeholders
// they reference and every attachment hanging off either.
func deleteDecisions(t *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var decisions []types.Decision
	if err := t.Preload("Appeal").Where("id IN ?", ids).Find(&decisions).Error; err != nil {
		return err
	}
	var stakeholderIDs, appealIDs []int64
	for _, d := range decisions {
		if d.DecidedByID != nil {
			stakeholderIDs = append(stakeholderIDs, *d.DecidedByID)
		}
		if a := d.Appeal; a != nil {
			appealIDs = append(appealIDs, a.ID)
			if a.AppealedByID != nil {
				stakeholderIDs = append(stakeholderIDs, *a.AppealedByID)
			}
			if a.JudicialAuthorisationID != nil {
				stakeholderIDs = append(stakeholderIDs, *a.JudicialAuthorisationID)
			}
		}
	}
	if err := t.Where("decision_id IN ?", ids).Delete(&types.Attachment{}).Error; err != nil {
		return err
	}
	if len(appealIDs) > 0 {
		if err := t.Where("appeal_id IN ?", appealIDs).Delete(&types.Attachment{}).Error; err != nil {
			return err
		}
		if err := t.Where("id IN ?", appealIDs).Delete(&types.Appeal{}).Error; err != nil {
			return err
		}
	}
	if err := t.Where("id IN ?", ids).Delete(&types.Decision{}).Error; err != nil {
		return err
	}
	if len(stakeholderIDs) > 0 {
		if err := t.Where("id IN ?", stakeholderIDs).Delete(&types.Stakeholder{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// RootColumns lists the errand's own columns for a versioned update.
// The errand number and creation stamps are not part of it.
func RootColumns(e *types.Errand) map[string]any {
	return map[string]any{
		"updated":              e.Updated,
		"external_case_id":     e.ExternalCaseID,
		"case_type":            e.CaseType,
		"priority":             e.Priority,
		"description":          e.Description,
		"case_title_addition":  e.CaseTitleAddition,
		"diary_number":         e.DiaryNumber,
		"phase":                e.Phase,
		"municipality_id":      e.MunicipalityID,
		"start_date":           e.StartDate,
		"end_date":             e.EndDate,
		"application_received": e.ApplicationReceived,
		"process_id":           e.ProcessID,
		"updated_by_client":    e.UpdatedByClient,
		"updated_by":           e.UpdatedBy,
		"statuses":             e.Statuses,
		"message_ids":          e.MessageIDs,
		"extra_parameters":     e.ExtraParameters,
	}
}
