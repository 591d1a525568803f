package store

import (
	"fmt"
	"strings"

	"github.com/antarctica/lantern-go/pkg/record"
)

// NotFoundError is raised by SelectOne for a missing record id
// (spec.md sec 4.C, sec 7).
type NotFoundError struct{ ID record.ID }

func (e *NotFoundError) Error() string { return fmt.Sprintf("record not found: %s", e.ID) }

// NotFoundSetError is raised by Select when one or more requested ids are
// missing, carrying the full missing set (spec.md sec 4.C, sec 7).
type NotFoundSetError struct{ Missing []record.ID }

func (e *NotFoundSetError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = id.String()
	}
	return fmt.Sprintf("records not found: %s", strings.Join(ids, ", "))
}

// FrozenError is raised by Push/Purge on a frozen Store (spec.md sec 4.C).
type FrozenError struct{ Op string }

func (e *FrozenError) Error() string { return fmt.Sprintf("store is frozen: cannot %s", e.Op) }

// UnavailableError describes a remote that is unreachable while no usable
// local cache exists (spec.md sec 7, "RemoteStoreUnavailable"). No Store
// method returns it; remote failures surface as wrapped errors instead.
type UnavailableError struct{ Cause error }

func (e *UnavailableError) Error() string { return fmt.Sprintf("remote store unavailable: %s", e.Cause) }
func (e *UnavailableError) Unwrap() error  { return e.Cause }
