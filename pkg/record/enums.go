// Package record implements the catalogue's ISO 19115-flavoured metadata
// record model: typed entities, structure/unstructure to canonical JSON,
// validation, content hashing, and the administrative-metadata seal.
package record

// HierarchyLevel classifies the kind of resource a record describes.
type HierarchyLevel string

const (
	HierarchyCollection          HierarchyLevel = "collection"
	HierarchyDataset             HierarchyLevel = "dataset"
	HierarchyProduct             HierarchyLevel = "product"
	HierarchyPaperMapProduct     HierarchyLevel = "paper_map_product"
	HierarchySeries              HierarchyLevel = "series"
	HierarchyNonGeographicDataset HierarchyLevel = "nonGeographicDataset"
)

// Valid reports whether h is a recognised hierarchy level.
func (h HierarchyLevel) Valid() bool {
	switch h {
	case HierarchyCollection, HierarchyDataset, HierarchyProduct,
		HierarchyPaperMapProduct, HierarchySeries, HierarchyNonGeographicDataset:
		return true
	}
	return false
}

// aliasPathPrefixes maps a hierarchy level to the alias URL prefixes that
// are valid for records of that level (spec.md sec 3, "Alias identifiers").
var aliasPathPrefixes = map[HierarchyLevel][]string{
	HierarchyCollection:      {"collections"},
	HierarchyDataset:         {"datasets"},
	HierarchyProduct:         {"products", "maps"},
	HierarchyPaperMapProduct: {"products", "maps"},
	HierarchySeries:          {"series"},
}

// AliasPrefixes returns the allowed alias path prefixes for h.
func (h HierarchyLevel) AliasPrefixes() []string {
	return aliasPathPrefixes[h]
}

// DatePrecision records how much of a date string was actually supplied,
// so that "2014", "2014-06" and "2014-06-30" round-trip losslessly.
type DatePrecision string

const (
	PrecisionYear     DatePrecision = "year"
	PrecisionMonth    DatePrecision = "month"
	PrecisionDay      DatePrecision = "day"
	PrecisionDateTime DatePrecision = "datetime"
)

// DateRole identifies which lifecycle event a Date describes.
type DateRole string

const (
	DateRoleCreation    DateRole = "creation"
	DateRolePublication DateRole = "publication"
	DateRoleRevision    DateRole = "revision"
	DateRoleReleased    DateRole = "released"
)

// ContactRole identifies the role a contact plays against a record.
type ContactRole string

const (
	ContactRolePointOfContact ContactRole = "pointOfContact"
	ContactRoleAuthor         ContactRole = "author"
	ContactRoleOwner          ContactRole = "owner"
	ContactRolePublisher      ContactRole = "publisher"
	ContactRoleDistributor    ContactRole = "distributor"
)

// AggregationAssociationCode classifies the nature of a cross-record link.
type AggregationAssociationCode string

const (
	AssociationLargerWorkCitation AggregationAssociationCode = "largerWorkCitation"
	AssociationCrossReference     AggregationAssociationCode = "crossReference"
	AssociationIsComposedOf       AggregationAssociationCode = "isComposedOf"
	AssociationRevisionOf         AggregationAssociationCode = "revisionOf"
)

// AggregationInitiativeCode classifies the kind of initiative an aggregation
// belongs to (collection, paper_map, campaign, ...).
type AggregationInitiativeCode string

const (
	InitiativeCollection AggregationInitiativeCode = "collection"
	InitiativePaperMap   AggregationInitiativeCode = "paperMap"
	InitiativeCampaign   AggregationInitiativeCode = "campaign"
)

// ConstraintType distinguishes access from usage constraints.
type ConstraintType string

const (
	ConstraintTypeAccess ConstraintType = "access"
	ConstraintTypeUsage  ConstraintType = "usage"
)

// ConstraintRestrictionCode is the ISO 19115 restriction code controlled
// vocabulary value carried by a constraint.
type ConstraintRestrictionCode string

const (
	RestrictionUnrestricted ConstraintRestrictionCode = "unrestricted"
	RestrictionRestricted   ConstraintRestrictionCode = "restricted"
)

// DistributionFormat enumerates the fixed set of distribution formats the
// catalogue knows how to present (spec.md sec 4.D "distributions bucketed
// into supported catalogue-typed variants").
type DistributionFormat string

const (
	FormatArcGISFeatureLayer  DistributionFormat = "arcgis_feature_layer"
	FormatArcGISOGCLayer      DistributionFormat = "arcgis_ogc_layer"
	FormatArcGISVectorTile    DistributionFormat = "arcgis_vector_tile_layer"
	FormatArcGISRasterTile    DistributionFormat = "arcgis_raster_tile_layer"
	FormatGeoPackage          DistributionFormat = "geopackage"
	FormatGeoPackageZip       DistributionFormat = "geopackage_zip"
	FormatGeoJSON             DistributionFormat = "geojson"
	FormatPDF                 DistributionFormat = "pdf"
	FormatPDFGeoreferenced    DistributionFormat = "pdf_georeferenced"
	FormatPNG                 DistributionFormat = "png"
	FormatJPEG                DistributionFormat = "jpeg"
	FormatShapefileZip        DistributionFormat = "shapefile_zip"
	FormatPublishedMap        DistributionFormat = "published_map"
	FormatSAN                 DistributionFormat = "san"
)

// MetadataStandardCitation is the fixed ISO 19115-2:2009 standard citation
// re-applied to every record on unstructure (spec.md sec 3).
const MetadataStandardCitation = "ISO 19115-2:2009 - Geographic information - Metadata - Part 2: Extensions for imagery and gridded data"

// SchemaURL is the fixed `$schema` value structure() accepts/unstructure()
// writes.
const SchemaURL = "https://metadata-standards.data.bas.ac.uk/standards/iso-19115-2-v4/schema.json"

// DefaultCharacterSet and DefaultLanguage are re-applied on every
// unstructure round-trip (spec.md sec 3).
const (
	DefaultCharacterSet = "utf8"
	DefaultLanguage     = "eng"
)
