package record

import "fmt"

// InvalidError reports a record that failed schema or structural invariant
// validation (spec.md sec 3, 7 "RecordInvalid").
type InvalidError struct {
	ID    ID
	Cause error
}

func (e *InvalidError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("record invalid: %s", e.Cause)
	}
	return fmt.Sprintf("record %s invalid: %s", e.ID, e.Cause)
}

func (e *InvalidError) Unwrap() error { return e.Cause }

// AdminSubjectMismatchError reports that administrative metadata's subject
// claim does not match the record it is being read from or written to.
type AdminSubjectMismatchError struct {
	RecordID ID
	AdminID  ID
}

func (e *AdminSubjectMismatchError) Error() string {
	return fmt.Sprintf("administrative metadata subject %s does not match record %s", e.AdminID, e.RecordID)
}

// AdminIntegrityError reports that an administrative metadata token failed
// signature verification, or carried the wrong issuer/audience.
type AdminIntegrityError struct {
	Reason string
}

func (e *AdminIntegrityError) Error() string {
	return fmt.Sprintf("administrative metadata integrity error: %s", e.Reason)
}
