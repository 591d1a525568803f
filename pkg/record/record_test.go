package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalRecordJSON = `{
  "file_identifier": "5d5b4e21-fd32-409c-be83-ca1c339903e5",
  "hierarchy_level": "product",
  "metadata": {
    "contacts": [],
    "datestamp": "2024-01-01T00:00:00Z",
    "character_set": "utf8",
    "language": "eng",
    "metadata_standard": {"title": "ISO 19115-2:2009 - Geographic information - Metadata - Part 2: Extensions for imagery and gridded data"}
  },
  "identification": {
    "title": "x",
    "abstract": "x",
    "dates": [{"date_type": "creation", "date": "2014-06-30"}],
    "contacts": [{"organisation": "BAS", "role": ["pointOfContact"]}],
    "identifiers": [{"identifier": "5d5b4e21-fd32-409c-be83-ca1c339903e5", "href": "https://data.bas.ac.uk/items/5d5b4e21-fd32-409c-be83-ca1c339903e5", "namespace": "data.bas.ac.uk"}]
  }
}`

func TestRecordRoundTrip(t *testing.T) {
	rec, err := Structure([]byte(minimalRecordJSON))
	require.NoError(t, err)
	require.Equal(t, "product", string(rec.HierarchyLevel))
	require.Equal(t, "x", rec.Identification.Title)

	out, err := rec.Unstructure()
	require.NoError(t, err)

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(minimalRecordJSON), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	require.Equal(t, want, got)
}

func TestRecordSHA1Stability(t *testing.T) {
	rec, err := Structure([]byte(minimalRecordJSON))
	require.NoError(t, err)

	hash1, err := rec.SHA1()
	require.NoError(t, err)
	hash2, err := rec.SHA1()
	require.NoError(t, err)
	require.Equal(t, hash1, hash2)

	dumped, err := rec.DumpsJSON(true)
	require.NoError(t, err)
	reloaded, err := Structure(dumped)
	require.NoError(t, err)
	hash3, err := reloaded.SHA1()
	require.NoError(t, err)
	require.Equal(t, hash1, hash3)
}

func TestValidateAliasRejectsUUIDSuffix(t *testing.T) {
	rec, err := Structure([]byte(minimalRecordJSON))
	require.NoError(t, err)

	rec.Identification.Identifiers = append(rec.Identification.Identifiers, Identifier{
		Identifier: "products/123e4567-e89b-12d3-a456-426614174000",
		Href:       "https://data.bas.ac.uk/products/123e4567-e89b-12d3-a456-426614174000",
		Namespace:  "alias.data.bas.ac.uk",
	})

	err = rec.Validate("data.bas.ac.uk")
	require.Error(t, err)
	require.ErrorContains(t, err, "must not contain a UUID")
}

func TestValidateRequiresPointOfContact(t *testing.T) {
	rec, err := Structure([]byte(minimalRecordJSON))
	require.NoError(t, err)
	rec.Identification.Contacts = nil

	err = rec.Validate("data.bas.ac.uk")
	require.Error(t, err)
	require.ErrorContains(t, err, "pointOfContact")
}

func TestAggregationsFilterCombinesAND(t *testing.T) {
	aggs := Aggregations{
		{Identifier: Identifier{Identifier: "a", Namespace: "data.bas.ac.uk"}, AssociationCode: AssociationIsComposedOf, InitiativeCode: InitiativePaperMap},
		{Identifier: Identifier{Identifier: "b", Namespace: "data.bas.ac.uk"}, AssociationCode: AssociationCrossReference, InitiativeCode: InitiativeCollection},
	}

	got := aggs.Filter(AggregationFilter{
		Namespace:        "data.bas.ac.uk",
		AssociationCodes: []AggregationAssociationCode{AssociationIsComposedOf},
		InitiativeCodes:  []AggregationInitiativeCode{InitiativePaperMap, InitiativeCollection},
	})
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Identifier.Identifier)
}
