package export

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antarctica/lantern-go/pkg/record"
)

// AdminKeys is the keypair used to unseal a record's administrative
// metadata. A zero-value AdminKeys (nil EncryptionKey) leaves every
// record's access level "restricted", the fail-closed default for
// resources with no readable admin seal.
type AdminKeys struct {
	EncryptionKey *ecdsa.PrivateKey
	SigningKey    *ecdsa.PublicKey
}

// DateView is a precision-aware, presentation-ready rendering of a
// record.Date as an HTML <time> element (spec.md sec 4.D, "formatted
// dates (precision-aware HTML <time> elements)").
type DateView struct {
	Role    record.DateRole
	Display string
	HTML    string // <time datetime="...">...</time>
}

func newDateView(entry record.DateEntry) DateView {
	iso := entry.Date.String()
	return DateView{
		Role:    entry.Role,
		Display: iso,
		HTML:    fmt.Sprintf(`<time datetime="%s">%s</time>`, iso, iso),
	}
}

// DistributionView projects a record.Distribution into one of the fixed
// presentation variants the item template understands (spec.md sec 4.D).
type DistributionView struct {
	Variant string
	Format  record.DistributionFormat
	Href    string
	Size    *int64
}

// distributionVariant buckets a format into the catalogue's fixed
// presentation-variant vocabulary (spec.md sec 4.D "distributions bucketed
// into supported catalogue-typed variants").
func distributionVariant(f record.DistributionFormat) string {
	switch f {
	case record.FormatArcGISFeatureLayer, record.FormatArcGISOGCLayer:
		return "arcgis_layer"
	case record.FormatArcGISVectorTile, record.FormatArcGISRasterTile:
		return "arcgis_tile_layer"
	case record.FormatGeoPackage, record.FormatGeoPackageZip:
		return "geopackage"
	case record.FormatGeoJSON:
		return "geojson"
	case record.FormatPDF, record.FormatPDFGeoreferenced:
		return "pdf"
	case record.FormatPNG, record.FormatJPEG:
		return "image"
	case record.FormatShapefileZip:
		return "shapefile"
	case record.FormatPublishedMap:
		return "published_map"
	case record.FormatSAN:
		return "san"
	default:
		return "other"
	}
}

func bucketDistributions(dists []record.Distribution) map[string][]DistributionView {
	out := map[string][]DistributionView{}
	for _, d := range dists {
		v := DistributionView{
			Variant: distributionVariant(d.Format),
			Format:  d.Format,
			Href:    d.TransferOption.Href,
			Size:    d.TransferOption.Size,
		}
		out[v.Variant] = append(out[v.Variant], v)
	}
	return out
}

// ItemViewModel is the presentation projection of a RecordRevision
// rendered by _views/item.html.j2 (spec.md sec 4.D).
type ItemViewModel struct {
	Revision          record.RecordRevision
	Title             string
	Abstract          string
	Dates             []DateView
	AccessLevelLabel  string
	Distributions     map[string][]DistributionView
	Tabs              []string
	PageHeader        string
	PageSummary       string
	OpenGraph         map[string]string
	SchemaOrg         map[string]any
	PaperMapChildren  []ItemViewModel // populated only by the paper-map-product strategy
}

// itemTabs is the fixed tab set every item page exposes (spec.md sec 4.D).
var itemTabs = []string{"items", "data", "authors", "licence", "extent", "lineage", "related", "additional-info", "contact", "admin"}

// ItemStrategy selects how a RecordRevision is projected into an
// ItemViewModel. The default strategy handles everything except the
// paper-map-product polymorphism (spec.md sec 4.D, sec 9 "best expressed
// as a strategy selected by a matches(record) -> bool predicate").
type ItemStrategy interface {
	Matches(rec record.Record) bool
	BuildViewModel(ctx context.Context, rev record.RecordRevision, related RelatedRecordResolver, keys AdminKeys) (ItemViewModel, error)
}

// RelatedRecordResolver resolves an aggregation target by id, lazily
// through the Store (spec.md sec 9, "Cyclic references... resolve lazily
// through the Store").
type RelatedRecordResolver func(ctx context.Context, id record.ID) (record.RecordRevision, error)

func baseViewModel(rev record.RecordRevision, keys AdminKeys) ItemViewModel {
	dates := make([]DateView, len(rev.Identification.Dates))
	for i, d := range rev.Identification.Dates {
		dates[i] = newDateView(d)
	}
	return ItemViewModel{
		Revision:         rev,
		Title:            rev.Identification.Title,
		Abstract:         rev.Identification.Abstract,
		Dates:            dates,
		AccessLevelLabel: accessLevelLabel(rev.Record, rev.FileIdentifier, keys),
		Distributions:    bucketDistributions(rev.Distribution),
		Tabs:             itemTabs,
		PageHeader:       rev.Identification.Title,
		PageSummary:      rev.Identification.Abstract,
		OpenGraph: map[string]string{
			"og:title":       rev.Identification.Title,
			"og:description": rev.Identification.Abstract,
		},
		SchemaOrg: map[string]any{
			"@context": "https://schema.org",
			"@type":    "Dataset",
			"name":     rev.Identification.Title,
		},
	}
}

// accessLevelLabel derives a presentation label from the record's sealed
// administrative metadata, not its access constraints: constraints are
// the resource's own stated terms, while admin metadata is the catalogue's
// live access-control decision (spec.md sec 4.D, "derived from admin
// metadata permissions"). The historical RESTRICTED+no-href "some BAS"
// branch (spec.md sec 9 Open Questions #3) is intentionally not
// implemented. A record with no admin seal, or one that fails to decode
// against keys, defaults closed to "restricted".
func accessLevelLabel(rec record.Record, id record.ID, keys AdminKeys) string {
	if keys.EncryptionKey == nil || keys.SigningKey == nil {
		return "restricted"
	}
	token, ok := record.AdminToken(rec)
	if !ok {
		return "restricted"
	}
	admin, err := record.DecodeAdmin(keys.EncryptionKey, keys.SigningKey, id, token)
	if err != nil {
		return "restricted"
	}
	if access, _ := admin.ResourcePermissions["access"].(string); access == "public" {
		return "open"
	}
	return "restricted"
}

// DefaultItemStrategy handles every hierarchy level except
// paper_map_product.
type DefaultItemStrategy struct{}

func (DefaultItemStrategy) Matches(rec record.Record) bool {
	return rec.HierarchyLevel != record.HierarchyPaperMapProduct
}

func (DefaultItemStrategy) BuildViewModel(ctx context.Context, rev record.RecordRevision, _ RelatedRecordResolver, keys AdminKeys) (ItemViewModel, error) {
	return baseViewModel(rev, keys), nil
}

// PaperMapItemStrategy renders the "physical map" variant for
// paper_map_product records whose aggregations contain
// is_composed_of x paper_map members, composing the per-side child
// records into a multi-extent, multi-series display (spec.md sec 4.D).
type PaperMapItemStrategy struct{}

func (PaperMapItemStrategy) Matches(rec record.Record) bool {
	if rec.HierarchyLevel != record.HierarchyPaperMapProduct {
		return false
	}
	sides := record.Aggregations(rec.Identification.Aggregations).Filter(record.AggregationFilter{
		AssociationCodes: []record.AggregationAssociationCode{record.AssociationIsComposedOf},
		InitiativeCodes:  []record.AggregationInitiativeCode{record.InitiativePaperMap},
	})
	return len(sides) > 0
}

func (s PaperMapItemStrategy) BuildViewModel(ctx context.Context, rev record.RecordRevision, related RelatedRecordResolver, keys AdminKeys) (ItemViewModel, error) {
	vm := baseViewModel(rev, keys)
	sides := record.Aggregations(rev.Identification.Aggregations).Filter(record.AggregationFilter{
		AssociationCodes: []record.AggregationAssociationCode{record.AssociationIsComposedOf},
		InitiativeCodes:  []record.AggregationInitiativeCode{record.InitiativePaperMap},
	})
	for _, side := range sides {
		sideID, err := record.ParseID(side.Identifier.Identifier)
		if err != nil {
			continue
		}
		childRev, err := related(ctx, sideID)
		if err != nil {
			return ItemViewModel{}, fmt.Errorf("resolving paper map side %s: %w", sideID, err)
		}
		childVM, err := DefaultItemStrategy{}.BuildViewModel(ctx, childRev, related, keys)
		if err != nil {
			return ItemViewModel{}, err
		}
		vm.PaperMapChildren = append(vm.PaperMapChildren, childVM)
	}
	return vm, nil
}

// ItemExporter renders a record's item page (spec.md sec 4.D, "Item HTML").
type ItemExporter struct {
	Revision   record.RecordRevision
	Renderer   TemplateRenderer
	Strategies []ItemStrategy // evaluated in order; first match wins
	Related    RelatedRecordResolver
	AdminKeys  AdminKeys
	Trusted    bool // selects the trusted-host rsync publish path
	RsyncPub   TrustedHostPublisher
}

// TrustedHostPublisher is the seam to pkg/publish/rsync's synchronous
// put, kept as an interface to avoid an import cycle.
type TrustedHostPublisher interface {
	Put(ctx context.Context, localDir, targetPath, host string) error
}

func (e *ItemExporter) Name() string {
	return fmt.Sprintf("item-html:%s", e.Revision.FileIdentifier)
}

func (e *ItemExporter) path() string {
	return filepath.Join("items", e.Revision.FileIdentifier.String(), "index.html")
}

func (e *ItemExporter) strategy() ItemStrategy {
	for _, s := range e.Strategies {
		if s.Matches(e.Revision.Record) {
			return s
		}
	}
	return DefaultItemStrategy{}
}

func (e *ItemExporter) render(ctx context.Context) ([]byte, error) {
	vm, err := e.strategy().BuildViewModel(ctx, e.Revision, e.Related, e.AdminKeys)
	if err != nil {
		return nil, err
	}
	return e.Renderer.Render("_views/item.html.j2", vm)
}

func (e *ItemExporter) Export(ctx context.Context, rootDir string) error {
	body, err := e.render(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, body, 0o644)
}

// Publish uploads to object storage by default, or, when Trusted is set,
// writes to a 0660/0770 temporary tree and rsyncs it through RsyncPub to
// the relative target path "items/" with an empty host (spec.md sec 4.D,
// "Trusted-host publish"). No trusted host or target path is configured,
// so the tree lands in the local "items/" directory.
func (e *ItemExporter) Publish(ctx context.Context, pub Publisher) error {
	body, err := e.render(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	if !e.Trusted {
		meta := map[string]string{
			"file_identifier": e.Revision.FileIdentifier.String(),
			"file_revision":   e.Revision.FileRevision,
		}
		return pub.UploadContent(ctx, e.path(), contentTypeFor(".html"), body, meta, "")
	}
	return e.publishTrusted(ctx, body)
}

func (e *ItemExporter) publishTrusted(ctx context.Context, body []byte) error {
	tmp, err := os.MkdirTemp("", "lantern-item-*")
	if err != nil {
		return fmt.Errorf("%s: creating trusted-host staging dir: %w", e.Name(), err)
	}
	defer os.RemoveAll(tmp)

	if err := os.Chmod(tmp, 0o770); err != nil {
		return err
	}
	itemDir := filepath.Join(tmp, e.Revision.FileIdentifier.String())
	if err := os.MkdirAll(itemDir, 0o770); err != nil {
		return err
	}
	dest := filepath.Join(itemDir, "index.html")
	if err := os.WriteFile(dest, body, 0o660); err != nil {
		return err
	}

	return e.RsyncPub.Put(ctx, tmp, "items/", "")
}
