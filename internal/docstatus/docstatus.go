// Package docstatus holds the lifecycle flag shared by submittable documents.
package docstatus

import (
	"errors"
	"strings"
)

// Docstatus is 0 for drafts, 1 once submitted and 2 after cancellation.
type Docstatus int

const (
	Draft     Docstatus = 0
	Submitted Docstatus = 1
	Cancelled Docstatus = 2
)

var (
	ErrNotDraft      = errors.New("document_not_draft")
	ErrNotSubmitted  = errors.New("document_not_submitted")
	ErrNotDeletable  = errors.New("document_not_deletable")
	ErrInvalidStatus = errors.New("invalid_docstatus")
)

func (d Docstatus) String() string {
	switch d {
	case Draft:
		return "Draft"
	case Submitted:
		return "Submitted"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

func (d Docstatus) Valid() bool {
	return d == Draft || d == Submitted || d == Cancelled
}

// Parse accepts the numeric flag or its name.
func Parse(value string) (Docstatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "draft":
		return Draft, nil
	case "1", "submitted":
		return Submitted, nil
	case "2", "cancelled", "canceled":
		return Cancelled, nil
	}
	return 0, ErrInvalidStatus
}

// CanUpdate reports whether the document may still be edited.
func (d Docstatus) CanUpdate() error {
	if d != Draft {
		return ErrNotDraft
	}
	return nil
}

func (d Docstatus) CanSubmit() error {
	if d != Draft {
		return ErrNotDraft
	}
	return nil
}

func (d Docstatus) CanCancel() error {
	if d != Submitted {
		return ErrNotSubmitted
	}
	return nil
}

// CanDelete allows drafts and cancelled documents to be removed.
func (d Docstatus) CanDelete() error {
	if d == Submitted {
		return ErrNotDeletable
	}
	return nil
}

// Included returns the statuses that feed reports. Drafts count only when considerDraft is set.
func Included(considerDraft bool) []Docstatus {
	if considerDraft {
		return []Docstatus{Draft, Submitted}
	}
	return []Docstatus{Submitted}
}
