package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/record"
)

func TestInScopeExcludesRestricted(t *testing.T) {
	rev := testRevision(record.NewID(), "Restricted")
	keys, signingKey, encryptionKey := testAdminKeys(t)
	sealAdmin(t, &rev.Record, signingKey, encryptionKey, record.Administration{
		ResourcePermissions: map[string]any{"access": "bas-staff"},
	})
	require.False(t, inScope(rev, nil, keys))
}

func TestInScopeExcludesSupersededByAnotherRecordsRevisionOf(t *testing.T) {
	keys, signingKey, encryptionKey := testAdminKeys(t)
	superseded := testRevision(record.NewID(), "Superseded")
	sealAdmin(t, &superseded.Record, signingKey, encryptionKey, record.Administration{
		ResourcePermissions: map[string]any{"access": "public"},
	})

	replacement := testRevision(record.NewID(), "Replacement")
	sealAdmin(t, &replacement.Record, signingKey, encryptionKey, record.Administration{
		ResourcePermissions: map[string]any{"access": "public"},
	})
	replacement.Identification.Aggregations = []record.Aggregation{
		{Identifier: record.Identifier{Identifier: superseded.FileIdentifier.String()}, AssociationCode: record.AssociationRevisionOf},
	}

	superset := supersededIDs([]record.RecordRevision{superseded, replacement})
	require.False(t, inScope(superseded, superset, keys), "the old record, named as another's revision_of target, must drop out")
	require.True(t, inScope(replacement, superset, keys), "the record carrying the revision_of aggregation is the current one and stays in scope")
}

func TestExportReturnsUnsupportedError(t *testing.T) {
	e := &SearchExporter{}
	err := e.Export(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrSearchExportUnsupported)
}

type fakeSearchAPI struct {
	existing []SearchIndexEntry
	upserted []SearchIndexEntry
	deleted  []record.ID
}

func (f *fakeSearchAPI) List(_ context.Context) ([]SearchIndexEntry, error) { return f.existing, nil }

func (f *fakeSearchAPI) Upsert(_ context.Context, entry SearchIndexEntry) error {
	f.upserted = append(f.upserted, entry)
	return nil
}

func (f *fakeSearchAPI) Delete(_ context.Context, id record.ID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestSyncUpsertsChangedAndDeletesOrphans(t *testing.T) {
	unchangedID := record.NewID()
	changedID := record.NewID()
	newID := record.NewID()
	orphanID := record.NewID()

	keys, signingKey, encryptionKey := testAdminKeys(t)
	openAccess := record.Administration{ResourcePermissions: map[string]any{"access": "public"}}

	unchanged := testRevision(unchangedID, "Unchanged")
	sealAdmin(t, &unchanged.Record, signingKey, encryptionKey, openAccess)
	changed := testRevision(changedID, "Changed")
	sealAdmin(t, &changed.Record, signingKey, encryptionKey, openAccess)
	changed.FileRevision = "new-sha"
	fresh := testRevision(newID, "Fresh")
	sealAdmin(t, &fresh.Record, signingKey, encryptionKey, openAccess)

	api := &fakeSearchAPI{existing: []SearchIndexEntry{
		{FileIdentifier: unchangedID, FileRevision: unchanged.FileRevision},
		{FileIdentifier: changedID, FileRevision: "old-sha"},
		{FileIdentifier: orphanID, FileRevision: "whatever"},
	}}

	e := &SearchExporter{Revisions: []record.RecordRevision{unchanged, changed, fresh}, API: api, AdminKeys: keys}
	require.NoError(t, e.Sync(context.Background()))

	require.Len(t, api.upserted, 2)
	var upsertedIDs []record.ID
	for _, entry := range api.upserted {
		upsertedIDs = append(upsertedIDs, entry.FileIdentifier)
	}
	require.Contains(t, upsertedIDs, changedID)
	require.Contains(t, upsertedIDs, newID)

	require.Equal(t, []record.ID{orphanID}, api.deleted)
}
