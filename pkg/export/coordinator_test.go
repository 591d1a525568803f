package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/record"
)

type fakeExporter struct {
	name       string
	exported   *bool
	published  *bool
	exportErr  error
	publishErr error
}

func (f *fakeExporter) Name() string { return f.name }

func (f *fakeExporter) Export(_ context.Context, _ string) error {
	if f.exported != nil {
		*f.exported = true
	}
	return f.exportErr
}

func (f *fakeExporter) Publish(_ context.Context, _ Publisher) error {
	if f.published != nil {
		*f.published = true
	}
	return f.publishErr
}

func TestCoordinatorRunDispatchesExportMode(t *testing.T) {
	var siteExported, resourceExported bool
	c := &Coordinator{
		Revisions:     []record.RecordRevision{testRevision(record.NewID(), "A")},
		SiteExporters: []Exporter{&fakeExporter{name: "site", exported: &siteExported}},
		ResourceFactory: func(_ record.RecordRevision) []Exporter {
			return []Exporter{&fakeExporter{name: "resource", exported: &resourceExported}}
		},
		Workers: 2,
	}
	require.NoError(t, c.Run(context.Background(), ModeExport))
	require.True(t, siteExported)
	require.True(t, resourceExported)
}

func TestCoordinatorRunDispatchesPublishMode(t *testing.T) {
	var published bool
	c := &Coordinator{
		SiteExporters: []Exporter{&fakeExporter{name: "site", published: &published}},
		ResourceFactory: func(_ record.RecordRevision) []Exporter {
			return nil
		},
	}
	require.NoError(t, c.Run(context.Background(), ModePublish))
	require.True(t, published)
}

func TestCoordinatorRunAggregatesJobErrors(t *testing.T) {
	c := &Coordinator{
		SiteExporters: []Exporter{&fakeExporter{name: "bad", exportErr: errors.New("boom")}},
		ResourceFactory: func(_ record.RecordRevision) []Exporter {
			return nil
		},
	}
	err := c.Run(context.Background(), ModeExport)
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
}
