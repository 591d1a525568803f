package verify

import (
	"fmt"
	"strings"

	"github.com/antarctica/lantern-go/pkg/record"
)

// doiNamespace is the identifiers namespace a DOI citation lives in.
const doiNamespace = "doi"

// Config carries the context values every job needs (spec.md sec 4.F).
type Config struct {
	BaseURL                 string
	SharePointProxyEndpoint string
	SANProxyEndpoint        string
	CatalogueHost           string // production host; DOI redirects only run against it
}

func (c Config) baseContext() map[string]string {
	return map[string]string{
		"BASE_URL":                  c.BaseURL,
		"SHAREPOINT_PROXY_ENDPOINT": c.SharePointProxyEndpoint,
		"SAN_PROXY_ENDPOINT":        c.SANProxyEndpoint,
	}
}

func isLocalhost(baseURL string) bool {
	return strings.Contains(baseURL, "localhost") || strings.Contains(baseURL, "127.0.0.1")
}

func (c Config) isProduction() bool {
	return strings.Contains(c.BaseURL, c.CatalogueHost)
}

// sitePagePaths mirrors the paths written by export's PagesExporter and
// IndexExporter, for planning purposes
// (spec.md sec 4.F, "One job per static site page").
var sitePagePaths = []string{
	"legal/cookies/index.html",
	"legal/privacy/index.html",
	"legal/accessibility/index.html",
	"legal/copyright/index.html",
	"-/index/index.html",
	"404.html",
}

// BuildPlan generates the full job list for the given record revisions
// (spec.md sec 4.F "Plan generation").
func BuildPlan(cfg Config, revisions []record.RecordRevision) []*Job {
	var jobs []*Job

	for _, path := range sitePagePaths {
		url := cfg.BaseURL + "/" + path
		expected := 200
		if path == "404.html" {
			expected = 404
			if isLocalhost(cfg.BaseURL) {
				continue // skipped on localhost
			}
		}
		j := NewJob(JobTypeSitePage, url, CheckURL, cfg.baseContext())
		j.ExpectedStatus = expected
		jobs = append(jobs, j)
	}

	for _, rev := range revisions {
		jobs = append(jobs, planRecord(cfg, rev)...)
	}
	return jobs
}

func planRecord(cfg Config, rev record.RecordRevision) []*Job {
	var jobs []*Job
	id := rev.FileIdentifier.String()
	itemURL := fmt.Sprintf("%s/items/%s/index.html", cfg.BaseURL, id)

	for _, ext := range []string{"json", "xml", "html"} {
		url := fmt.Sprintf("%s/records/%s.%s", cfg.BaseURL, id, ext)
		jobs = append(jobs, NewJob(JobTypeRecordFormat, url, CheckURL, cfg.baseContext()))
	}

	jobs = append(jobs, NewJob(JobTypeItemPage, itemURL, CheckURL, cfg.baseContext()))

	if !isLocalhost(cfg.BaseURL) {
		aliasNamespace := record.AliasNamespacePrefix + cfg.CatalogueHost
		for _, ident := range rev.Identification.Identifiers {
			if ident.Namespace != aliasNamespace {
				continue
			}
			j := NewJob(JobTypeAliasRedirect, cfg.BaseURL+"/"+ident.Identifier, CheckURLRedirect, cfg.baseContext())
			j.Target = fmt.Sprintf("%s/items/%s/index.html", cfg.BaseURL, id)
			jobs = append(jobs, j)
		}
	}

	if cfg.isProduction() {
		for _, ident := range rev.Identification.Identifiers {
			if ident.Namespace != doiNamespace {
				continue
			}
			j := NewJob(JobTypeDOIRedirect, ident.Href, CheckURLRedirect, cfg.baseContext())
			j.Target = fmt.Sprintf("https://%s/items/%s", cfg.CatalogueHost, id)
			jobs = append(jobs, j)
		}
	}

	for _, dist := range rev.Distribution {
		jobs = append(jobs, planDistribution(cfg, dist, itemURL)...)
	}

	return jobs
}

// planDistribution applies the host-specific special-casing of spec.md
// sec 4.F to one distribution, always appending the item-download
// membership check.
func planDistribution(cfg Config, dist record.Distribution, itemURL string) []*Job {
	var jobs []*Job
	href := dist.TransferOption.Href
	ctxMap := cfg.baseContext()

	switch {
	case isArcGISFormat(dist.Format):
		jobs = append(jobs, planArcGIS(dist, ctxMap))
	case strings.HasPrefix(href, "sftp://san"):
		j := NewJob(JobTypeDistribution, cfg.SANProxyEndpoint, CheckURL, ctxMap)
		j.Method = "POST"
		j.JSONBody = map[string]string{"path": href}
		jobs = append(jobs, j)
	case strings.Contains(href, "/Documents"):
		_, path, _ := strings.Cut(href, "/Documents")
		j := NewJob(JobTypeDistribution, cfg.SharePointProxyEndpoint, CheckURL, ctxMap)
		j.Method = "POST"
		j.JSONBody = map[string]string{"path": path}
		jobs = append(jobs, j)
	case strings.Contains(href, "nora.nerc.ac.uk"):
		j := NewJob(JobTypeDistribution, href, CheckURL, ctxMap)
		j.Method = "GET"
		j.Headers = map[string]string{"Range": "bytes=0-253"}
		j.ExpectedStatus = 206
		jobs = append(jobs, j)
	default:
		j := NewJob(JobTypeDistribution, href, CheckURL, ctxMap)
		if dist.TransferOption.Size != nil {
			j.ExpectedLength = dist.TransferOption.Size
		}
		jobs = append(jobs, j)
	}

	download := NewJob(JobTypeItemDownload, href, CheckItemDownload, ctxMap)
	download.Context["URL"] = itemURL
	jobs = append(jobs, download)

	return jobs
}

func isArcGISFormat(f record.DistributionFormat) bool {
	switch f {
	case record.FormatArcGISFeatureLayer, record.FormatArcGISOGCLayer,
		record.FormatArcGISVectorTile, record.FormatArcGISRasterTile:
		return true
	}
	return false
}

// planArcGIS rewrites a layer URL to its item-introspection form and a
// service URL to its `?f=json` form (spec.md sec 4.F).
func planArcGIS(dist record.Distribution, ctxMap map[string]string) *Job {
	href := dist.TransferOption.Href
	var url string
	switch dist.Format {
	case record.FormatArcGISFeatureLayer, record.FormatArcGISOGCLayer:
		id := href[strings.LastIndex(href, "/")+1:]
		url = fmt.Sprintf("https://www.arcgis.com/sharing/rest/content/items/%s?f=json", id)
	default:
		url = href + "?f=json"
	}
	return NewJob(JobTypeDistribution, url, CheckURLArcGIS, ctxMap)
}
