package errand

import (
	"time"

	"gorm.io/datatypes"
)

// Parameters is the free-form string map every entity of the aggregate carries.
type Parameters = datatypes.JSONType[map[string]string]

// NewParameters copies m into a storable parameter map.
func NewParameters(m map[string]string) Parameters {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return datatypes.NewJSONType(out)
}

// Errand is the aggregate root. Children reference it through ErrandID and are
// only ever written through the errand aggregate.
type Errand struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	// {abbreviation}-{year}-{sequence}; assigned once before the first insert.
	ErrandNumber string `gorm:"column:errand_number;not null;uniqueIndex:uk_errand_errand_number" json:"errandNumber"`

	ExternalCaseID      string     `gorm:"column:external_case_id;index" json:"externalCaseId,omitempty"`
	CaseType            CaseType   `gorm:"column:case_type;not null;index" json:"caseType"`
	Priority            Priority   `gorm:"column:priority" json:"priority,omitempty"`
	Description         string     `gorm:"column:description;type:text" json:"description,omitempty"`
	CaseTitleAddition   string     `gorm:"column:case_title_addition" json:"caseTitleAddition,omitempty"`
	DiaryNumber         string     `gorm:"column:diary_number" json:"diaryNumber,omitempty"`
	Phase               string     `gorm:"column:phase" json:"phase,omitempty"`
	MunicipalityID      string     `gorm:"column:municipality_id" json:"municipalityId,omitempty"`
	StartDate           *time.Time `gorm:"column:start_date" json:"startDate,omitempty"`
	EndDate             *time.Time `gorm:"column:end_date" json:"endDate,omitempty"`
	ApplicationReceived *time.Time `gorm:"column:application_received" json:"applicationReceived,omitempty"`

	// Reference to the workflow instance driving this errand. Set after creation.
	ProcessID string `gorm:"column:process_id" json:"processId,omitempty"`

	CreatedByClient string `gorm:"column:created_by_client" json:"createdByClient,omitempty"`
	UpdatedByClient string `gorm:"column:updated_by_client" json:"updatedByClient,omitempty"`
	CreatedBy       string `gorm:"column:created_by" json:"createdBy,omitempty"`
	UpdatedBy       string `gorm:"column:updated_by" json:"updatedBy,omitempty"`

	Statuses        datatypes.JSONSlice[Status] `gorm:"column:statuses" json:"statuses"`
	MessageIDs      datatypes.JSONSlice[string] `gorm:"column:message_ids" json:"messageIds"`
	ExtraParameters Parameters                  `gorm:"column:extra_parameters" json:"extraParameters"`

	Stakeholders []Stakeholder `gorm:"foreignKey:ErrandID" json:"stakeholders"`
	Facilities   []Facility    `gorm:"foreignKey:ErrandID" json:"facilities"`
	Attachments  []Attachment  `gorm:"foreignKey:ErrandID" json:"attachments"`
	Decisions    []Decision    `gorm:"foreignKey:ErrandID" json:"decisions"`
	Notes        []Note        `gorm:"foreignKey:ErrandID" json:"notes"`
}

func (Errand) TableName() string { return "errand" }

// IsClosed reports whether the errand has reached its end date.
func (e *Errand) IsClosed() bool {
	return e != nil && e.EndDate != nil
}

// Patch carries the scalar fields a caller may change on an existing errand.
// Nil fields are left untouched. ExtraParameters are merged key by key.
type Patch struct {
	ExternalCaseID      *string           `json:"externalCaseId"`
	CaseType            *CaseType         `json:"caseType"`
	Priority            *Priority         `json:"priority"`
	Description         *string           `json:"description"`
	CaseTitleAddition   *string           `json:"caseTitleAddition"`
	DiaryNumber         *string           `json:"diaryNumber"`
	Phase               *string           `json:"phase"`
	MunicipalityID      *string           `json:"municipalityId"`
	StartDate           *time.Time        `json:"startDate"`
	EndDate             *time.Time        `json:"endDate"`
	ApplicationReceived *time.Time        `json:"applicationReceived"`
	ExtraParameters     map[string]string `json:"extraParameters"`
}

// Apply copies every non-nil field of p onto e. The errand number is never
// part of a patch; the case type may change but the number keeps its prefix.
func (p Patch) Apply(e *Errand) {
	if e == nil {
		return
	}
	if p.ExternalCaseID != nil {
		e.ExternalCaseID = *p.ExternalCaseID
	}
	if p.CaseType != nil {
		e.CaseType = *p.CaseType
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.CaseTitleAddition != nil {
		e.CaseTitleAddition = *p.CaseTitleAddition
	}
	if p.DiaryNumber != nil {
		e.DiaryNumber = *p.DiaryNumber
	}
	if p.Phase != nil {
		e.Phase = *p.Phase
	}
	if p.MunicipalityID != nil {
		e.MunicipalityID = *p.MunicipalityID
	}
	if p.StartDate != nil {
		e.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate
	}
	if p.ApplicationReceived != nil {
		e.ApplicationReceived = p.ApplicationReceived
	}
	if len(p.ExtraParameters) > 0 {
		e.ExtraParameters = mergeParameters(e.ExtraParameters, p.ExtraParameters)
	}
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.ExternalCaseID == nil && p.CaseType == nil && p.Priority == nil &&
		p.Description == nil && p.CaseTitleAddition == nil && p.DiaryNumber == nil &&
		p.Phase == nil && p.MunicipalityID == nil && p.StartDate == nil &&
		p.EndDate == nil && p.ApplicationReceived == nil && len(p.ExtraParameters) == 0
}

// NotePatch changes the text fields of an existing note. Nil fields are kept.
type NotePatch struct {
	Title           *string           `json:"title"`
	Text            *string           `json:"text"`
	ExtraParameters map[string]string `json:"extraParameters"`
}

func (p NotePatch) Apply(n *Note) {
	if n == nil {
		return
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Text != nil {
		n.Text = *p.Text
	}
	if len(p.ExtraParameters) > 0 {
		n.ExtraParameters = mergeParameters(n.ExtraParameters, p.ExtraParameters)
	}
}

func mergeParameters(current Parameters, patch map[string]string) Parameters {
	merged := make(map[string]string, len(patch))
	for k, v := range current.Data() {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return datatypes.NewJSONType(merged)
}
