package errand

import "time"

// The Stamp* helpers prepare entities that are about to be inserted: they
// clear identity and version so the store assigns them, and set both
// timestamps. They walk owned sub-entities as well.

func StampStakeholder(s *Stakeholder, now time.Time) {
	if s == nil {
		return
	}
	s.ID, s.Version, s.Created, s.Updated = 0, 0, now, now
}

func StampFacility(f *Facility, now time.Time) {
	if f == nil {
		return
	}
	f.ID, f.Version, f.Created, f.Updated = 0, 0, now, now
}

func StampAttachment(a *Attachment, now time.Time) {
	if a == nil {
		return
	}
	a.ID, a.Version, a.Created, a.Updated = 0, 0, now, now
	a.ErrandID, a.DecisionID, a.AppealID = nil, nil, nil
}

func StampNote(n *Note, user string, now time.Time) {
	if n == nil {
		return
	}
	n.ID, n.Version, n.Created, n.Updated = 0, 0, now, now
	n.CreatedBy = ""
	TouchNote(n, user, true)
}

func StampDecision(d *Decision, now time.Time) {
	if d == nil {
		return
	}
	d.ID, d.Version, d.Created, d.Updated = 0, 0, now, now
	d.DecidedByID = nil
	StampStakeholder(d.DecidedBy, now)
	if d.DecidedBy != nil {
		d.DecidedBy.ErrandID = nil
	}
	for i := range d.Attachments {
		StampAttachment(&d.Attachments[i], now)
	}
	if a := d.Appeal; a != nil {
		a.ID, a.Version, a.Created, a.Updated = 0, 0, now, now
		a.DecisionID, a.AppealedByID, a.JudicialAuthorisationID = nil, nil, nil
		StampStakeholder(a.AppealedBy, now)
		StampStakeholder(a.JudicialAuthorisation, now)
		if a.AppealedBy != nil {
			a.AppealedBy.ErrandID = nil
		}
		if a.JudicialAuthorisation != nil {
			a.JudicialAuthorisation.ErrandID = nil
		}
		for i := range a.Attachments {
			StampAttachment(&a.Attachments[i], now)
		}
	}
}

// StampNewErrand prepares a complete aggregate for its first insert.
func StampNewErrand(e *Errand, user string, now time.Time) {
	if e == nil {
		return
	}
	e.ID, e.Version, e.Updated = 0, 0, now
	e.ProcessID = ""
	for i := range e.Stakeholders {
		StampStakeholder(&e.Stakeholders[i], now)
	}
	for i := range e.Facilities {
		StampFacility(&e.Facilities[i], now)
	}
	for i := range e.Attachments {
		StampAttachment(&e.Attachments[i], now)
	}
	for i := range e.Decisions {
		StampDecision(&e.Decisions[i], now)
	}
	for i := range e.Notes {
		StampNote(&e.Notes[i], user, now)
	}
}
