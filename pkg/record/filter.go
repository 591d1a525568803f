package record

// This file implements the typed-container `filter(...)` operations of
// spec.md sec 4.A as free functions over plain slices (sec 9 design note:
// "model as free functions over typed slices... the filter semantics (AND
// across predicates, OR within) must match sec 4.A exactly").

// Identifiers is a typed container of Identifier values.
type Identifiers []Identifier

// Filter returns the identifiers whose namespace is one of namespaces (OR).
// With no namespaces given, it returns xs unchanged.
func (xs Identifiers) Filter(namespaces ...string) Identifiers {
	if len(namespaces) == 0 {
		return xs
	}
	out := make(Identifiers, 0, len(xs))
	for _, id := range xs {
		if containsStr(namespaces, id.Namespace) {
			out = append(out, id)
		}
	}
	return out
}

// Contacts is a typed container of Contact values.
type Contacts []Contact

// Filter returns the contacts that hold at least one of roles (OR). With
// no roles given, it returns xs unchanged.
func (xs Contacts) Filter(roles ...ContactRole) Contacts {
	if len(roles) == 0 {
		return xs
	}
	out := make(Contacts, 0, len(xs))
	for _, c := range xs {
		for _, r := range c.Roles {
			if containsRole(roles, r) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Extents is a typed container of Extent values.
type Extents []Extent

// Filter returns the extents whose identifier is one of identifiers (OR).
func (xs Extents) Filter(identifiers ...string) Extents {
	if len(identifiers) == 0 {
		return xs
	}
	out := make(Extents, 0, len(xs))
	for _, e := range xs {
		if containsStr(identifiers, e.Identifier) {
			out = append(out, e)
		}
	}
	return out
}

// Constraints is a typed container of Constraint values.
type Constraints []Constraint

// Filter returns the constraints whose type is one of types (OR).
func (xs Constraints) Filter(types ...ConstraintType) Constraints {
	if len(types) == 0 {
		return xs
	}
	out := make(Constraints, 0, len(xs))
	for _, c := range xs {
		for _, t := range types {
			if c.Type == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Aggregations is a typed container of Aggregation values.
type Aggregations []Aggregation

// AggregationFilter describes an Aggregations.Filter call: each non-empty
// field is AND-ed together; values within a field are OR-ed (spec.md sec
// 4.A, "Aggregations.filter combines namespace + identifier(s) +
// association code(s) + initiative code(s) with AND").
type AggregationFilter struct {
	Namespace        string
	Identifiers      []string
	AssociationCodes []AggregationAssociationCode
	InitiativeCodes  []AggregationInitiativeCode
}

// Filter applies f to xs.
func (xs Aggregations) Filter(f AggregationFilter) Aggregations {
	out := make(Aggregations, 0, len(xs))
	for _, a := range xs {
		if f.Namespace != "" && a.Identifier.Namespace != f.Namespace {
			continue
		}
		if len(f.Identifiers) > 0 && !containsStr(f.Identifiers, a.Identifier.Identifier) {
			continue
		}
		if len(f.AssociationCodes) > 0 && !containsAssociation(f.AssociationCodes, a.AssociationCode) {
			continue
		}
		if len(f.InitiativeCodes) > 0 && !containsInitiative(f.InitiativeCodes, a.InitiativeCode) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsRole(xs []ContactRole, x ContactRole) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsAssociation(xs []AggregationAssociationCode, x AggregationAssociationCode) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsInitiative(xs []AggregationInitiativeCode, x AggregationInitiativeCode) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
