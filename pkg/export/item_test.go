package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/record"
)

type stubRenderer struct{}

func (stubRenderer) Render(name string, data any) ([]byte, error) {
	return []byte("rendered:" + name), nil
}

func TestDefaultItemStrategyMatchesEverythingExceptPaperMap(t *testing.T) {
	require.True(t, DefaultItemStrategy{}.Matches(record.Record{HierarchyLevel: record.HierarchyDataset}))
	require.False(t, DefaultItemStrategy{}.Matches(record.Record{HierarchyLevel: record.HierarchyPaperMapProduct}))
}

func TestPaperMapItemStrategyRequiresComposedOfSides(t *testing.T) {
	rec := record.Record{HierarchyLevel: record.HierarchyPaperMapProduct}
	require.False(t, PaperMapItemStrategy{}.Matches(rec))

	rec.Identification.Aggregations = []record.Aggregation{
		{
			Identifier:      record.Identifier{Identifier: record.NewID().String()},
			AssociationCode: record.AssociationIsComposedOf,
			InitiativeCode:  record.InitiativePaperMap,
		},
	}
	require.True(t, PaperMapItemStrategy{}.Matches(rec))
}

func TestAccessLevelLabelDefaultsToRestrictedWithoutAdminSeal(t *testing.T) {
	rev := testRevision(record.NewID(), "Example")
	keys, _, _ := testAdminKeys(t)
	require.Equal(t, "restricted", accessLevelLabel(rev.Record, rev.FileIdentifier, keys))
}

func TestAccessLevelLabelOpenFromAdminResourcePermissions(t *testing.T) {
	rev := testRevision(record.NewID(), "Example")
	keys, signingKey, encryptionKey := testAdminKeys(t)
	sealAdmin(t, &rev.Record, signingKey, encryptionKey, record.Administration{
		ResourcePermissions: map[string]any{"access": "public"},
	})
	require.Equal(t, "open", accessLevelLabel(rev.Record, rev.FileIdentifier, keys))
}

func TestAccessLevelLabelRestrictedFromAdminResourcePermissions(t *testing.T) {
	rev := testRevision(record.NewID(), "Example")
	keys, signingKey, encryptionKey := testAdminKeys(t)
	sealAdmin(t, &rev.Record, signingKey, encryptionKey, record.Administration{
		ResourcePermissions: map[string]any{"access": "bas-staff"},
	})
	require.Equal(t, "restricted", accessLevelLabel(rev.Record, rev.FileIdentifier, keys))
}

func TestBucketDistributionsGroupsByVariant(t *testing.T) {
	dists := []record.Distribution{
		{Format: record.FormatGeoJSON, TransferOption: record.TransferOption{Href: "a.geojson"}},
		{Format: record.FormatPDF, TransferOption: record.TransferOption{Href: "a.pdf"}},
		{Format: record.DistributionFormat("unknown/format"), TransferOption: record.TransferOption{Href: "a.bin"}},
	}
	buckets := bucketDistributions(dists)
	require.Len(t, buckets["geojson"], 1)
	require.Len(t, buckets["pdf"], 1)
	require.Len(t, buckets["other"], 1)
}

func TestItemExporterStrategySelectsFirstMatch(t *testing.T) {
	rev := testRevision(record.NewID(), "Example")
	e := &ItemExporter{
		Revision:   rev,
		Strategies: []ItemStrategy{PaperMapItemStrategy{}, DefaultItemStrategy{}},
	}
	require.IsType(t, DefaultItemStrategy{}, e.strategy())
}

func TestItemExporterExportWritesFile(t *testing.T) {
	rev := testRevision(record.NewID(), "Example")
	e := &ItemExporter{
		Revision:   rev,
		Renderer:   stubRenderer{},
		Strategies: []ItemStrategy{DefaultItemStrategy{}},
	}
	dir := t.TempDir()
	require.NoError(t, e.Export(context.Background(), dir))

	body, err := os.ReadFile(filepath.Join(dir, "items", rev.FileIdentifier.String(), "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(body), "rendered:_views/item.html.j2")
}

func TestPaperMapItemStrategyResolvesChildren(t *testing.T) {
	childID := record.NewID()
	parent := testRevision(record.NewID(), "Parent")
	parent.HierarchyLevel = record.HierarchyPaperMapProduct
	parent.Identification.Aggregations = []record.Aggregation{
		{
			Identifier:      record.Identifier{Identifier: childID.String()},
			AssociationCode: record.AssociationIsComposedOf,
			InitiativeCode:  record.InitiativePaperMap,
		},
	}
	child := testRevision(childID, "Child side")

	resolver := func(_ context.Context, id record.ID) (record.RecordRevision, error) {
		require.True(t, id.Equal(childID))
		return child, nil
	}

	vm, err := PaperMapItemStrategy{}.BuildViewModel(context.Background(), parent, resolver, AdminKeys{})
	require.NoError(t, err)
	require.Len(t, vm.PaperMapChildren, 1)
	require.Equal(t, "Child side", vm.PaperMapChildren[0].Title)
}
