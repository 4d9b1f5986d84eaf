package errand

import (
	"time"

	"gorm.io/datatypes"
)

// StakeholderPatch changes an existing stakeholder. Nil fields are kept;
// ExtraParameters are merged key by key.
type StakeholderPatch struct {
	Type                *StakeholderType     `json:"type"`
	FirstName           *string              `json:"firstName"`
	LastName            *string              `json:"lastName"`
	PersonID            *string              `json:"personId"`
	OrganizationName    *string              `json:"organizationName"`
	OrganizationNumber  *string              `json:"organizationNumber"`
	AuthorizedSignatory *string              `json:"authorizedSignatory"`
	AdAccount           *string              `json:"adAccount"`
	Roles               []string             `json:"roles"`
	Addresses           []Address            `json:"addresses"`
	ContactInformation  []ContactInformation `json:"contactInformation"`
	ExtraParameters     map[string]string    `json:"extraParameters"`
}

func (p StakeholderPatch) Apply(s *Stakeholder) {
	if s == nil {
		return
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	setString(&s.FirstName, p.FirstName)
	setString(&s.LastName, p.LastName)
	setString(&s.PersonID, p.PersonID)
	setString(&s.OrganizationName, p.OrganizationName)
	setString(&s.OrganizationNumber, p.OrganizationNumber)
	setString(&s.AuthorizedSignatory, p.AuthorizedSignatory)
	setString(&s.AdAccount, p.AdAccount)
	if p.Roles != nil {
		s.Roles = datatypes.JSONSlice[string](p.Roles)
	}
	if p.Addresses != nil {
		s.Addresses = datatypes.JSONSlice[Address](p.Addresses)
	}
	if p.ContactInformation != nil {
		s.ContactInformation = datatypes.JSONSlice[ContactInformation](p.ContactInformation)
	}
	if len(p.ExtraParameters) > 0 {
		s.ExtraParameters = mergeParameters(s.ExtraParameters, p.ExtraParameters)
	}
}

// DecisionPatch changes the scalar fields of a decision. The decider, the
// appeal, laws and attachments are only replaced through a full put.
type DecisionPatch struct {
	DecisionType    *DecisionType     `json:"decisionType"`
	DecisionOutcome *DecisionOutcome  `json:"decisionOutcome"`
	Description     *string           `json:"description"`
	DecidedAt       *time.Time        `json:"decidedAt"`
	ValidFrom       *time.Time        `json:"validFrom"`
	ValidTo         *time.Time        `json:"validTo"`
	ExtraParameters map[string]string `json:"extraParameters"`
}

func (p DecisionPatch) Apply(d *Decision) {
	if d == nil {
		return
	}
	if p.DecisionType != nil {
		d.DecisionType = *p.DecisionType
	}
	if p.DecisionOutcome != nil {
		d.DecisionOutcome = *p.DecisionOutcome
	}
	setString(&d.Description, p.Description)
	if p.DecidedAt != nil {
		d.DecidedAt = p.DecidedAt
	}
	if p.ValidFrom != nil {
		d.ValidFrom = p.ValidFrom
	}
	if p.ValidTo != nil {
		d.ValidTo = p.ValidTo
	}
	if len(p.ExtraParameters) > 0 {
		d.ExtraParameters = mergeParameters(d.ExtraParameters, p.ExtraParameters)
	}
}

// The Put* helpers overwrite a child's content with src while keeping its
// identity, version, creation time and owner.

func PutStakeholder(dst *Stakeholder, src Stakeholder) {
	if dst == nil {
		return
	}
	src.ID, src.Version, src.Created, src.Updated, src.ErrandID = dst.ID, dst.Version, dst.Created, dst.Updated, dst.ErrandID
	*dst = src
}

func PutAttachment(dst *Attachment, src Attachment) {
	if dst == nil {
		return
	}
	src.ID, src.Version, src.Created, src.Updated = dst.ID, dst.Version, dst.Created, dst.Updated
	src.ErrandID, src.DecisionID, src.AppealID = dst.ErrandID, dst.DecisionID, dst.AppealID
	*dst = src
}

// PutNote keeps the note's original author; updatedBy is stamped by the caller.
func PutNote(dst *Note, src Note) {
	if dst == nil {
		return
	}
	src.ID, src.Version, src.Created, src.Updated, src.ErrandID = dst.ID, dst.Version, dst.Created, dst.Updated, dst.ErrandID
	src.CreatedBy, src.UpdatedBy = dst.CreatedBy, dst.UpdatedBy
	*dst = src
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
