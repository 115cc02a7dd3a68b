package indexing

import "fmt"

// FieldConflictError reports a cross-catalog field fingerprint collision:
// two unrelated catalogs produced byte-identical field metadata, which would
// silently merge distinct series identities if allowed through.
type FieldConflictError struct {
	FieldTitle      string
	ExistingCatalog string
	IncomingCatalog string
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("field %q repeated across catalogs %s and %s",
		e.FieldTitle, e.ExistingCatalog, e.IncomingCatalog)
}
