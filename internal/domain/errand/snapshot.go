package errand

import (
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
)

// Snapshots returns the comparable state of every tracked entity in the
// aggregate: the root, its stakeholders, facilities, attachments, decisions
// and notes. Stakeholders and attachments owned by decisions and appeals are
// included. Appeals are folded into their decision.
func Snapshots(e *Errand) map[history.Key]history.Snapshot {
	out := map[history.Key]history.Snapshot{}
	if e == nil {
		return out
	}
	out[history.Key{Type: history.EntityErrand, ID: e.ID}] = e.Snapshot()
	for i := range e.Stakeholders {
		addStakeholder(out, &e.Stakeholders[i])
	}
	for i := range e.Facilities {
		f := &e.Facilities[i]
		out[history.Key{Type: history.EntityFacility, ID: f.ID}] = f.Snapshot()
	}
	for i := range e.Attachments {
		addAttachment(out, &e.Attachments[i])
	}
	for i := range e.Decisions {
		d := &e.Decisions[i]
		out[history.Key{Type: history.EntityDecision, ID: d.ID}] = d.Snapshot()
		addStakeholder(out, d.DecidedBy)
		for j := range d.Attachments {
			addAttachment(out, &d.Attachments[j])
		}
		if a := d.Appeal; a != nil {
			addStakeholder(out, a.AppealedBy)
			addStakeholder(out, a.JudicialAuthorisation)
			for j := range a.Attachments {
				addAttachment(out, &a.Attachments[j])
			}
		}
	}
	for i := range e.Notes {
		n := &e.Notes[i]
		out[history.Key{Type: history.EntityNote, ID: n.ID}] = n.Snapshot()
	}
	return out
}

func addStakeholder(out map[history.Key]history.Snapshot, s *Stakeholder) {
	if s == nil || s.ID == 0 {
		return
	}
	out[history.Key{Type: history.EntityStakeholder, ID: s.ID}] = s.Snapshot()
}

func addAttachment(out map[history.Key]history.Snapshot, a *Attachment) {
	if a == nil || a.ID == 0 {
		return
	}
	out[history.Key{Type: history.EntityAttachment, ID: a.ID}] = a.Snapshot()
}

func (e *Errand) Snapshot() history.Snapshot {
	statuses := make([]any, 0, len(e.Statuses))
	for _, s := range e.Statuses {
		statuses = append(statuses, map[string]any{
			"statusType":  s.StatusType,
			"description": s.Description,
			"dateTime":    timeValue(&s.DateTime),
		})
	}
	messageIDs := make([]any, 0, len(e.MessageIDs))
	for _, id := range e.MessageIDs {
		messageIDs = append(messageIDs, id)
	}
	return history.Snapshot{
		"id":                  e.ID,
		"version":             int64(e.Version),
		"created":             timeValue(&e.Created),
		"updated":             timeValue(&e.Updated),
		"errandNumber":        e.ErrandNumber,
		"externalCaseId":      e.ExternalCaseID,
		"caseType":            string(e.CaseType),
		"priority":            string(e.Priority),
		"description":         e.Description,
		"caseTitleAddition":   e.CaseTitleAddition,
		"diaryNumber":         e.DiaryNumber,
		"phase":               e.Phase,
		"municipalityId":      e.MunicipalityID,
		"startDate":           timeValue(e.StartDate),
		"endDate":             timeValue(e.EndDate),
		"applicationReceived": timeValue(e.ApplicationReceived),
		"processId":           e.ProcessID,
		"createdByClient":     e.CreatedByClient,
		"updatedByClient":     e.UpdatedByClient,
		"createdBy":           e.CreatedBy,
		"updatedBy":           e.UpdatedBy,
		"statuses":            statuses,
		"messageIds":          messageIDs,
		"extraParameters":     paramsValue(e.ExtraParameters),
		"stakeholders":        idList(len(e.Stakeholders), func(i int) int64 { return e.Stakeholders[i].ID }),
		"facilities":          idList(len(e.Facilities), func(i int) int64 { return e.Facilities[i].ID }),
		"attachments":         idList(len(e.Attachments), func(i int) int64 { return e.Attachments[i].ID }),
		"decisions":           idList(len(e.Decisions), func(i int) int64 { return e.Decisions[i].ID }),
		"notes":               idList(len(e.Notes), func(i int) int64 { return e.Notes[i].ID }),
	}
}

func (s *Stakeholder) Snapshot() history.Snapshot {
	roles := make([]any, 0, len(s.Roles))
	for _, r := range s.Roles {
		roles = append(roles, r)
	}
	addresses := make([]any, 0, len(s.Addresses))
	for i := range s.Addresses {
		addresses = append(addresses, addressValue(&s.Addresses[i]))
	}
	contacts := make([]any, 0, len(s.ContactInformation))
	for _, c := range s.ContactInformation {
		contacts = append(contacts, map[string]any{"contactType": string(c.ContactType), "value": c.Value})
	}
	return history.Snapshot{
		"id":                  s.ID,
		"version":             int64(s.Version),
		"created":             timeValue(&s.Created),
		"updated":             timeValue(&s.Updated),
		"type":                string(s.Type),
		"firstName":           s.FirstName,
		"lastName":            s.LastName,
		"personId":            s.PersonID,
		"organizationName":    s.OrganizationName,
		"organizationNumber":  s.OrganizationNumber,
		"authorizedSignatory": s.AuthorizedSignatory,
		"adAccount":           s.AdAccount,
		"roles":               roles,
		"addresses":           addresses,
		"contactInformation":  contacts,
		"extraParameters":     paramsValue(s.ExtraParameters),
	}
}

func (f *Facility) Snapshot() history.Snapshot {
	return history.Snapshot{
		"id":                     f.ID,
		"version":                int64(f.Version),
		"created":                timeValue(&f.Created),
		"updated":                timeValue(&f.Updated),
		"description":            f.Description,
		"address":                addressValue(&f.Address),
		"facilityCollectionName": f.FacilityCollectionName,
		"mainFacility":           f.MainFacility,
		"facilityType":           f.FacilityType,
		"extraParameters":        paramsValue(f.ExtraParameters),
	}
}

func (a *Attachment) Snapshot() history.Snapshot {
	return history.Snapshot{
		"id":              a.ID,
		"version":         int64(a.Version),
		"created":         timeValue(&a.Created),
		"updated":         timeValue(&a.Updated),
		"category":        a.Category,
		"name":            a.Name,
		"note":            a.Note,
		"extension":       a.Extension,
		"mimeType":        a.MimeType,
		"file":            a.File,
		"extraParameters": paramsValue(a.ExtraParameters),
	}
}

func (d *Decision) Snapshot() history.Snapshot {
	laws := make([]any, 0, len(d.Law))
	for _, l := range d.Law {
		laws = append(laws, map[string]any{"heading": l.Heading, "sfs": l.SFS, "chapter": l.Chapter, "article": l.Article})
	}
	var appeal any
	if a := d.Appeal; a != nil {
		appeal = map[string]any{
			"appealedBy":            stakeholderRef(a.AppealedBy),
			"judicialAuthorisation": stakeholderRef(a.JudicialAuthorisation),
			"attachments":           idList(len(a.Attachments), func(i int) int64 { return a.Attachments[i].ID }),
			"extraParameters":       paramsValue(a.ExtraParameters),
		}
	}
	return history.Snapshot{
		"id":              d.ID,
		"version":         int64(d.Version),
		"created":         timeValue(&d.Created),
		"updated":         timeValue(&d.Updated),
		"decisionType":    string(d.DecisionType),
		"decisionOutcome": string(d.DecisionOutcome),
		"description":     d.Description,
		"law":             laws,
		"decidedBy":       stakeholderRef(d.DecidedBy),
		"decidedAt":       timeValue(d.DecidedAt),
		"validFrom":       timeValue(d.ValidFrom),
		"validTo":         timeValue(d.ValidTo),
		"appeal":          appeal,
		"attachments":     idList(len(d.Attachments), func(i int) int64 { return d.Attachments[i].ID }),
		"extraParameters": paramsValue(d.ExtraParameters),
	}
}

func (n *Note) Snapshot() history.Snapshot {
	return history.Snapshot{
		"id":              n.ID,
		"version":         int64(n.Version),
		"created":         timeValue(&n.Created),
		"updated":         timeValue(&n.Updated),
		"title":           n.Title,
		"text":            n.Text,
		"createdBy":       n.CreatedBy,
		"updatedBy":       n.UpdatedBy,
		"extraParameters": paramsValue(n.ExtraParameters),
	}
}

func addressValue(a *Address) map[string]any {
	var zoning any
	if a.IsZoningPlanArea != nil {
		zoning = *a.IsZoningPlanArea
	}
	return map[string]any{
		"addressCategory":     string(a.AddressCategory),
		"street":              a.Street,
		"houseNumber":         a.HouseNumber,
		"postalCode":          a.PostalCode,
		"city":                a.City,
		"country":             a.Country,
		"careOf":              a.CareOf,
		"attention":           a.Attention,
		"propertyDesignation": a.PropertyDesignation,
		"apartmentNumber":     a.ApartmentNumber,
		"isZoningPlanArea":    zoning,
		"invoiceMarking":      a.InvoiceMarking,
		"location": map[string]any{
			"latitude":  floatValue(a.Location.Latitude),
			"longitude": floatValue(a.Location.Longitude),
		},
	}
}

func stakeholderRef(s *Stakeholder) any {
	if s == nil || s.ID == 0 {
		return nil
	}
	return s.ID
}

func paramsValue(p Parameters) map[string]any {
	data := p.Data()
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func idList(n int, id func(int) int64) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, id(i))
	}
	return out
}

func timeValue(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
