package errand

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) Valid() bool {
	switch p {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type StakeholderType string

const (
	StakeholderPerson       StakeholderType = "PERSON"
	StakeholderOrganization StakeholderType = "ORGANIZATION"
)

func (t StakeholderType) Valid() bool {
	return t == StakeholderPerson || t == StakeholderOrganization
}

const (
	RoleApplicant     = "APPLICANT"
	RoleAdministrator = "ADMINISTRATOR"
	RoleContactPerson = "CONTACT_PERSON"
	RolePropertyOwner = "PROPERTY_OWNER"
	RoleDoctor        = "DOCTOR"
)

type ContactType string

const (
	ContactCellphone ContactType = "CELLPHONE"
	ContactPhone     ContactType = "PHONE"
	ContactEmail     ContactType = "EMAIL"
)

type AddressCategory string

const (
	AddressPostal   AddressCategory = "POSTAL_ADDRESS"
	AddressInvoice  AddressCategory = "INVOICE_ADDRESS"
	AddressVisiting AddressCategory = "VISITING_ADDRESS"
)

type DecisionType string

const (
	DecisionRecommended DecisionType = "RECOMMENDED"
	DecisionProposed    DecisionType = "PROPOSED"
	DecisionFinal       DecisionType = "FINAL"
)

type DecisionOutcome string

const (
	OutcomeApproval       DecisionOutcome = "APPROVAL"
	OutcomeRejection      DecisionOutcome = "REJECTION"
	OutcomeDismissal      DecisionOutcome = "DISMISSAL"
	OutcomeCancellation   DecisionOutcome = "CANCELLATION"
	OutcomeConditionalYes DecisionOutcome = "CONDITIONAL_APPROVAL"
)
