package diag

import (
	"expose/internal/source"
)

// Note is a secondary message attached to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single textual replacement inside a fix.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested source edit. Insertions use an empty span, removals an
// empty NewText.
type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// WithFix returns a copy of the diagnostic with the fix appended.
func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}
