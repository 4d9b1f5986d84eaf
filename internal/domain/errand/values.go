package errand

import "time"

// Status is one entry of an errand's ordered status list. It has no identity.
type Status struct {
	StatusType  string    `json:"statusType"`
	Description string    `json:"description,omitempty"`
	DateTime    time.Time `json:"dateTime"`
}

// Law references the legal ground of a decision.
type Law struct {
	Heading string `json:"heading,omitempty"`
	SFS     string `json:"sfs,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Article string `json:"article,omitempty"`
}

type ContactInformation struct {
	ContactType ContactType `json:"contactType"`
	Value       string      `json:"value"`
}

type Coordinates struct {
	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`
}

// Address is embedded on facilities and stored as a JSON list on stakeholders.
type Address struct {
	AddressCategory     AddressCategory `gorm:"column:category" json:"addressCategory,omitempty"`
	Street              string          `gorm:"column:street" json:"street,omitempty"`
	HouseNumber         string          `gorm:"column:house_number" json:"houseNumber,omitempty"`
	PostalCode          string          `gorm:"column:postal_code" json:"postalCode,omitempty"`
	City                string          `gorm:"column:city" json:"city,omitempty"`
	Country             string          `gorm:"column:country" json:"country,omitempty"`
	CareOf              string          `gorm:"column:care_of" json:"careOf,omitempty"`
	Attention           string          `gorm:"column:attention" json:"attention,omitempty"`
	PropertyDesignation string          `gorm:"column:property_designation" json:"propertyDesignation,omitempty"`
	ApartmentNumber     string          `gorm:"column:apartment_number" json:"apartmentNumber,omitempty"`
	IsZoningPlanArea    *bool           `gorm:"column:is_zoning_plan_area" json:"isZoningPlanArea,omitempty"`
	InvoiceMarking      string          `gorm:"column:invoice_marking" json:"invoiceMarking,omitempty"`
	Location            Coordinates     `gorm:"embedded;embeddedPrefix:location_" json:"location"`
}
