package errand

import (
	"strings"
	"time"
)

// Touch refreshes the root's audit fields. It runs on every persisted
// mutation of the aggregate, including ones that only change a child.
func Touch(e *Errand, client, user string, now time.Time) {
	if e == nil {
		return
	}
	e.Updated = now
	e.UpdatedByClient = client
	e.UpdatedBy = user
}

// StampCreated sets the creation attribution from the acting caller. It is
// only called before the first insert; later writes never reach it, so any
// caller supplied values are replaced.
func StampCreated(e *Errand, client, user string, now time.Time) {
	if e == nil {
		return
	}
	e.Created = now
	e.CreatedByClient = client
	e.CreatedBy = user
}

// TouchNote stamps a note's own author fields. createdBy is written only when
// the note is first inserted.
func TouchNote(n *Note, user string, inserting bool) {
	if n == nil {
		return
	}
	if inserting && strings.TrimSpace(n.CreatedBy) == "" {
		n.CreatedBy = user
	}
	n.UpdatedBy = user
}
