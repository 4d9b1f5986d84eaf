package errand

import (
	"time"

	"gorm.io/datatypes"
)

// Stakeholder is a person or organization involved in an errand. Stakeholders
// also appear as the decider of a decision and as parties of an appeal; those
// rows carry no ErrandID.
type Stakeholder struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	ErrandID *int64 `gorm:"column:errand_id;index" json:"-"`

	Type                StakeholderType                         `gorm:"column:type;not null" json:"type"`
	FirstName           string                                  `gorm:"column:first_name" json:"firstName,omitempty"`
	LastName            string                                  `gorm:"column:last_name" json:"lastName,omitempty"`
	PersonID            string                                  `gorm:"column:person_id;index" json:"personId,omitempty"`
	OrganizationName    string                                  `gorm:"column:organization_name" json:"organizationName,omitempty"`
	OrganizationNumber  string                                  `gorm:"column:organization_number" json:"organizationNumber,omitempty"`
	AuthorizedSignatory string                                  `gorm:"column:authorized_signatory" json:"authorizedSignatory,omitempty"`
	AdAccount           string                                  `gorm:"column:ad_account" json:"adAccount,omitempty"`
	Roles               datatypes.JSONSlice[string]             `gorm:"column:roles" json:"roles"`
	Addresses           datatypes.JSONSlice[Address]            `gorm:"column:addresses" json:"addresses"`
	ContactInformation  datatypes.JSONSlice[ContactInformation] `gorm:"column:contact_information" json:"contactInformation"`
	ExtraParameters     Parameters                              `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Stakeholder) TableName() string { return "stakeholder" }

// Facility is a property or site the errand concerns.
type Facility struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	ErrandID *int64 `gorm:"column:errand_id;index" json:"-"`

	Description            string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Address                Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	FacilityCollectionName string     `gorm:"column:facility_collection_name" json:"facilityCollectionName,omitempty"`
	MainFacility           bool       `gorm:"column:main_facility" json:"mainFacility"`
	FacilityType           string     `gorm:"column:facility_type" json:"facilityType,omitempty"`
	ExtraParameters        Parameters `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Facility) TableName() string { return "facility" }

// Attachment belongs to exactly one of an errand, a decision or an appeal.
type Attachment struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	ErrandID   *int64 `gorm:"column:errand_id;index" json:"-"`
	DecisionID *int64 `gorm:"column:decision_id;index" json:"-"`
	AppealID   *int64 `gorm:"column:appeal_id;index" json:"-"`

	Category        string     `gorm:"column:category" json:"category,omitempty"`
	Name            string     `gorm:"column:name" json:"name,omitempty"`
	Note            string     `gorm:"column:note;type:text" json:"note,omitempty"`
	Extension       string     `gorm:"column:extension" json:"extension,omitempty"`
	MimeType        string     `gorm:"column:mime_type" json:"mimeType,omitempty"`
	File            string     `gorm:"column:file;type:text" json:"file,omitempty"`
	ExtraParameters Parameters `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Attachment) TableName() string { return "attachment" }

// Decision records an outcome on the errand together with the laws it rests on.
type Decision struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	ErrandID *int64 `gorm:"column:errand_id;index" json:"-"`

	DecisionType    DecisionType             `gorm:"column:decision_type" json:"decisionType,omitempty"`
	DecisionOutcome DecisionOutcome          `gorm:"column:decision_outcome" json:"decisionOutcome,omitempty"`
	Description     string                   `gorm:"column:description;type:text" json:"description,omitempty"`
	Law             datatypes.JSONSlice[Law] `gorm:"column:law" json:"law"`
	DecidedByID     *int64                   `gorm:"column:decided_by_id" json:"-"`
	DecidedBy       *Stakeholder             `gorm:"foreignKey:DecidedByID" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time               `gorm:"column:decided_at" json:"decidedAt,omitempty"`
	ValidFrom       *time.Time               `gorm:"column:valid_from" json:"validFrom,omitempty"`
	ValidTo         *time.Time               `gorm:"column:valid_to" json:"validTo,omitempty"`
	Appeal          *Appeal                  `gorm:"foreignKey:DecisionID" json:"appeal,omitempty"`
	Attachments     []Attachment             `gorm:"foreignKey:DecisionID" json:"attachments"`
	ExtraParameters Parameters               `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Decision) TableName() string { return "decision" }

// Appeal is owned by its decision and is not tracked on its own in history.
type Appeal struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	DecisionID *int64 `gorm:"column:decision_id;index" json:"-"`

	AppealedByID            *int64       `gorm:"column:appealed_by_id" json:"-"`
	AppealedBy              *Stakeholder `gorm:"foreignKey:AppealedByID" json:"appealedBy,omitempty"`
	JudicialAuthorisationID *int64       `gorm:"column:judicial_authorisation_id" json:"-"`
	JudicialAuthorisation   *Stakeholder `gorm:"foreignKey:JudicialAuthorisationID" json:"judicialAuthorisation,omitempty"`
	Attachments             []Attachment `gorm:"foreignKey:AppealID" json:"attachments"`
	ExtraParameters         Parameters   `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Appeal) TableName() string { return "appeal" }

// Note carries its own author stamps next to the errand's.
type Note struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version int       `gorm:"column:version;not null;default:0" json:"version"`
	Created time.Time `gorm:"column:created;not null" json:"created"`
	Updated time.Time `gorm:"column:updated;not null" json:"updated"`

	ErrandID *int64 `gorm:"column:errand_id;index" json:"-"`

	Title           string     `gorm:"column:title" json:"title,omitempty"`
	Text            string     `gorm:"column:text;type:text" json:"text,omitempty"`
	CreatedBy       string     `gorm:"column:created_by" json:"createdBy,omitempty"`
	UpdatedBy       string     `gorm:"column:updated_by" json:"updatedBy,omitempty"`
	ExtraParameters Parameters `gorm:"column:extra_parameters" json:"extraParameters"`
}

func (Note) TableName() string { return "note" }
