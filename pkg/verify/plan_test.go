package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/record"
)

func testRevision(id record.ID) record.RecordRevision {
	return record.RecordRevision{
		Record: record.Record{
			FileIdentifier: id,
			Identification: record.Identification{
				Title:       "Example",
				Identifiers: []record.Identifier{{Identifier: id.String(), Namespace: record.CatalogueNamespace}},
			},
		},
		FileRevision: "rev1",
	}
}

func TestBuildPlanIncludesSitePagesAndSkips404OnLocalhost(t *testing.T) {
	cfg := Config{BaseURL: "http://localhost:8080"}
	jobs := BuildPlan(cfg, nil)

	var saw404 bool
	for _, j := range jobs {
		if j.Type == JobTypeSitePage && j.ExpectedStatus == 404 {
			saw404 = true
		}
	}
	require.False(t, saw404, "404 page check must be skipped on localhost")
	require.NotEmpty(t, jobs)
}

func TestBuildPlanIncludes404OnNonLocalhost(t *testing.T) {
	cfg := Config{BaseURL: "https://data.example.com"}
	jobs := BuildPlan(cfg, nil)

	var saw404 bool
	for _, j := range jobs {
		if j.Type == JobTypeSitePage && j.ExpectedStatus == 404 {
			saw404 = true
		}
	}
	require.True(t, saw404)
}

func TestPlanRecordSkipsAliasRedirectsOnLocalhost(t *testing.T) {
	cfg := Config{BaseURL: "http://localhost:8080"}
	rev := testRevision(record.NewID())
	rev.Identification.Identifiers = append(rev.Identification.Identifiers, record.Identifier{
		Identifier: "my-alias", Namespace: record.AliasNamespacePrefix + "localhost:8080",
	})

	jobs := planRecord(cfg, rev)
	for _, j := range jobs {
		require.NotEqual(t, JobTypeAliasRedirect, j.Type)
	}
}

func TestPlanRecordIncludesDOIRedirectsOnlyInProduction(t *testing.T) {
	rev := testRevision(record.NewID())
	rev.Identification.Identifiers = append(rev.Identification.Identifiers, record.Identifier{
		Identifier: "10.5285/abc", Namespace: doiNamespace, Href: "https://doi.org/10.5285/abc",
	})

	nonProd := Config{BaseURL: "https://staging.example.com", CatalogueHost: "data.example.com"}
	jobs := planRecord(nonProd, rev)
	for _, j := range jobs {
		require.NotEqual(t, JobTypeDOIRedirect, j.Type)
	}

	prod := Config{BaseURL: "https://data.example.com", CatalogueHost: "data.example.com"}
	jobs = planRecord(prod, rev)
	var sawDOI bool
	for _, j := range jobs {
		if j.Type == JobTypeDOIRedirect {
			sawDOI = true
		}
	}
	require.True(t, sawDOI)
}

func TestPlanDistributionSpecialCasesSAN(t *testing.T) {
	cfg := Config{BaseURL: "https://data.example.com", SANProxyEndpoint: "https://proxy.example.com/san"}
	dist := record.Distribution{TransferOption: record.TransferOption{Href: "sftp://san/archive/file.zip"}}

	jobs := planDistribution(cfg, dist, "https://data.example.com/items/x/index.html")
	require.Len(t, jobs, 2) // the SAN check + the item-download check
	require.Equal(t, cfg.SANProxyEndpoint, jobs[0].URL)
	require.Equal(t, "POST", jobs[0].Method)
	require.Equal(t, JobTypeItemDownload, jobs[1].Type)
}

func TestPlanDistributionSpecialCasesSharePoint(t *testing.T) {
	cfg := Config{BaseURL: "https://data.example.com", SharePointProxyEndpoint: "https://proxy.example.com/sp"}
	dist := record.Distribution{TransferOption: record.TransferOption{Href: "https://bas.sharepoint.com/sites/x/Documents/file.pdf"}}

	jobs := planDistribution(cfg, dist, "https://data.example.com/items/x/index.html")
	require.Equal(t, cfg.SharePointProxyEndpoint, jobs[0].URL)
	require.Equal(t, map[string]string{"path": "/file.pdf"}, jobs[0].JSONBody)
}

func TestPlanDistributionSpecialCasesNORA(t *testing.T) {
	cfg := Config{BaseURL: "https://data.example.com"}
	dist := record.Distribution{TransferOption: record.TransferOption{Href: "https://nora.nerc.ac.uk/file.pdf"}}

	jobs := planDistribution(cfg, dist, "https://data.example.com/items/x/index.html")
	require.Equal(t, "GET", jobs[0].Method)
	require.Equal(t, "bytes=0-253", jobs[0].Headers["Range"])
	require.Equal(t, 206, jobs[0].ExpectedStatus)
}

func TestPlanDistributionDefaultsToFileCheck(t *testing.T) {
	size := int64(1024)
	cfg := Config{BaseURL: "https://data.example.com"}
	dist := record.Distribution{TransferOption: record.TransferOption{Href: "https://files.example.com/a.geojson", Size: &size}}

	jobs := planDistribution(cfg, dist, "https://data.example.com/items/x/index.html")
	require.Equal(t, CheckURL, jobs[0].CheckFunc)
	require.Equal(t, &size, jobs[0].ExpectedLength)
}

func TestPlanArcGISRewritesLayerURL(t *testing.T) {
	dist := record.Distribution{
		Format:         record.FormatArcGISFeatureLayer,
		TransferOption: record.TransferOption{Href: "https://services.arcgis.com/abc/arcgis/rest/services/x/FeatureServer/123"},
	}
	j := planArcGIS(dist, nil)
	require.Equal(t, CheckURLArcGIS, j.CheckFunc)
	require.Contains(t, j.URL, "sharing/rest/content/items/123")
}
