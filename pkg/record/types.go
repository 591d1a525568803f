package record

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a record's stable file_identifier. It behaves like a plain UUID
// but carries the Scan/Value/JSON conventions the cache layer needs,
// generalised from the teacher's docid.UUID wrapper (this catalogue has
// no composite provider-id, only a bare UUID per record).
type ID struct {
	value uuid.UUID
}

// NewID generates a new random (v4) record identifier.
func NewID() ID { return ID{value: uuid.New()} }

// ParseID parses s as a record identifier.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid record id: %w", err)
	}
	return ID{value: u}, nil
}

// MustParseID parses s, panicking on error. For test fixtures only.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string  { return id.value.String() }
func (id ID) IsZero() bool    { return id.value == uuid.Nil }
func (id ID) Equal(o ID) bool { return id.value == o.value }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(id.value.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("record id must be a string: %w", err)
	}
	if s == "" {
		*id = ID{}
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ID) Scan(value any) error {
	if value == nil {
		*id = ID{}
		return nil
	}
	switch v := value.(type) {
	case string:
		parsed, err := ParseID(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case []byte:
		parsed, err := ParseID(string(v))
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into record.ID", value)
	}
}

func (id ID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.value.String(), nil
}

// Date carries a value with explicit precision so "2014", "2014-06",
// "2014-06-30" and a full UTC datetime all round-trip without loss of
// value (spec.md sec 4.A). A datetime is always written back in RFC 3339
// form with a "Z" suffix, so an input written with "+00:00" does not keep
// that spelling.
type Date struct {
	Precision DatePrecision
	Year      int
	Month     int // 1-12, zero if precision < month
	Day       int // 1-31, zero if precision < day
	Time      time.Time // only meaningful for PrecisionDateTime; always UTC
}

// String renders the date back to its canonical ISO8601 string form at
// the recorded precision.
func (d Date) String() string {
	switch d.Precision {
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case PrecisionDateTime:
		return d.Time.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// ParseDate parses one of the four supported ISO8601 forms.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		if _, offset := t.Zone(); offset != 0 {
			// has a non-zero offset; spec requires UTC-only datetimes.
			return Date{}, fmt.Errorf("datetime %q must be UTC", s)
		}
		return Date{Precision: PrecisionDateTime, Time: t.UTC(),
			Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Precision: PrecisionDay, Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return Date{Precision: PrecisionMonth, Year: t.Year(), Month: int(t.Month())}, nil
	}
	if t, err := time.Parse("2006", s); err == nil {
		return Date{Precision: PrecisionYear, Year: t.Year()}, nil
	}
	return Date{}, fmt.Errorf("unrecognised date form: %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateEntry associates a Date with the lifecycle role it describes.
type DateEntry struct {
	Role DateRole `json:"date_type"`
	Date Date     `json:"date"`
}

// Citation describes a reference to an external document or standard.
type Citation struct {
	Title string            `json:"title"`
	Href  string            `json:"href,omitempty"`
	Dates []DateEntry       `json:"dates,omitempty"`
	Edition string          `json:"edition,omitempty"`
	Contacts []Contact      `json:"contacts,omitempty"`
	OtherDetails map[string]any `json:"other_details,omitempty"`
}

// Contact describes an organisation or individual associated with a
// record, tagged with the role(s) it plays.
type Contact struct {
	Individual   string        `json:"individual,omitempty"`
	Organisation string        `json:"organisation,omitempty"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	Roles        []ContactRole `json:"role"`
}

// Identifier is a namespaced external identifier for a record (the
// catalogue's own item id, a DOI, an alias, ...).
type Identifier struct {
	Identifier string `json:"identifier"`
	Href       string `json:"href"`
	Namespace  string `json:"namespace"`
}

// Aggregation is a typed cross-reference to another record.
type Aggregation struct {
	Identifier      Identifier                 `json:"identifier"`
	AssociationCode AggregationAssociationCode `json:"association_type"`
	InitiativeCode  AggregationInitiativeCode  `json:"initiative_type,omitempty"`
}

// Constraint restricts access to, or usage of, a record's resource.
type Constraint struct {
	Type            ConstraintType            `json:"type"`
	Restriction     ConstraintRestrictionCode `json:"restriction_code,omitempty"`
	Statement       string                    `json:"statement,omitempty"`
	Href            string                    `json:"href,omitempty"`
}

// Extent describes the spatial/temporal coverage of a resource.
type Extent struct {
	Identifier string   `json:"identifier"`
	BoundingBox *BBox   `json:"bounding_box,omitempty"`
	TemporalPeriod *TemporalPeriod `json:"temporal_period,omitempty"`
}

// BBox is a geographic bounding box in decimal degrees.
type BBox struct {
	WestLongitude float64 `json:"west_longitude"`
	EastLongitude float64 `json:"east_longitude"`
	SouthLatitude float64 `json:"south_latitude"`
	NorthLatitude float64 `json:"north_latitude"`
}

// TemporalPeriod is a start/end time range; either bound may be absent
// for an open-ended period.
type TemporalPeriod struct {
	Start *Date `json:"start,omitempty"`
	End   *Date `json:"end,omitempty"`
}

// GraphicOverview is a thumbnail/preview image reference.
type GraphicOverview struct {
	Identifier string `json:"identifier"`
	Href       string `json:"href"`
	MimeType   string `json:"mime_type,omitempty"`
}

// Maintenance describes how frequently a resource is expected to change.
type Maintenance struct {
	MaintenanceFrequency string `json:"maintenance_frequency,omitempty"`
	ProgressCode         string `json:"progress_code,omitempty"`
}

// Series associates a record with a parent series and position within it.
type Series struct {
	Name string `json:"name,omitempty"`
	Page string `json:"page,omitempty"`
}

// DomainConsistencyEntry references a schema profile a record is
// additionally validated against (spec.md sec 4.A).
type DomainConsistencyEntry struct {
	Specification Citation `json:"specification"`
	Explanation   string   `json:"explanation,omitempty"`
	Pass          *bool    `json:"pass,omitempty"`
}

// DataQuality carries lineage and domain-consistency information. It is
// merged into Identification.SupplementalInformation-adjacent keys on
// canonicalisation (spec.md sec 3, "workaround keys").
type DataQuality struct {
	LineageStatement  string                    `json:"lineage_statement,omitempty"`
	DomainConsistency []DomainConsistencyEntry  `json:"domain_consistency,omitempty"`
}

// Identification is the descriptive heart of a record.
type Identification struct {
	Title                   string                 `json:"title"`
	Abstract                string                 `json:"abstract"`
	Dates                   []DateEntry            `json:"dates"`
	Edition                 string                 `json:"edition,omitempty"`
	Identifiers             []Identifier           `json:"identifiers,omitempty"`
	Contacts                []Contact              `json:"contacts"`
	Aggregations            []Aggregation          `json:"aggregations,omitempty"`
	Constraints             []Constraint           `json:"constraints,omitempty"`
	Extents                 []Extent               `json:"extents,omitempty"`
	GraphicOverviews        []GraphicOverview       `json:"graphic_overviews,omitempty"`
	Maintenance             *Maintenance            `json:"maintenance,omitempty"`
	SpatialResolution       *string                 `json:"spatial_resolution,omitempty"`
	Series                  *Series                 `json:"series,omitempty"`
	SupplementalInformation map[string]any          `json:"supplemental_information,omitempty"`
}

// ReferenceSystemInfo carries the CRS code a record's spatial data is in.
type ReferenceSystemInfo struct {
	Code      string    `json:"code"`
	Authority *Citation `json:"authority,omitempty"`
}

// Metadata carries record-level bookkeeping fields.
type Metadata struct {
	Contacts         []Contact `json:"contacts"`
	Datestamp        time.Time `json:"datestamp"`
	CharacterSet     string    `json:"character_set"`
	Language         string    `json:"language"`
	MetadataStandard Citation  `json:"metadata_standard"`
}

// TransferOption describes where and how much of a distribution to fetch.
type TransferOption struct {
	Href string `json:"href"`
	Size *int64 `json:"size,omitempty"`
}

// Distribution describes one way a resource is made available.
type Distribution struct {
	Format         DistributionFormat `json:"format"`
	Distributor    *Contact           `json:"distributor,omitempty"`
	TransferOption TransferOption     `json:"transfer_option"`
}

// Record is the in-memory representation of one catalogue metadata
// record (spec.md sec 3).
type Record struct {
	FileIdentifier      ID                   `json:"file_identifier"`
	HierarchyLevel      HierarchyLevel       `json:"hierarchy_level"`
	Metadata            Metadata             `json:"metadata"`
	ReferenceSystemInfo *ReferenceSystemInfo `json:"reference_system_info,omitempty"`
	Identification      Identification       `json:"identification"`
	DataQuality         *DataQuality         `json:"data_quality,omitempty"`
	Distribution        []Distribution       `json:"distribution,omitempty"`
}

// RecordRevision is a Record plus the remote blob's last-commit id at the
// point it was cached (spec.md sec 3).
type RecordRevision struct {
	Record
	FileRevision string `json:"file_revision"`
}
