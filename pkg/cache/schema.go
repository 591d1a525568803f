package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/antarctica/lantern-go/pkg/record"
)

// cacheRecord is the durable GORM model backing the `record` table
// (spec.md sec 4.B). file_identifier/file_revision are materialised by
// application code in BeforeSave rather than as SQLite GENERATED columns
// (spec.md sec 9, "equivalent strategies are fine"); PRIMARY KEY on sha1
// and UNIQUE on file_identifier are load-bearing as specified.
type cacheRecord struct {
	SHA1           string `gorm:"column:sha1;primaryKey"`
	FileIdentifier string `gorm:"column:file_identifier;uniqueIndex"`
	FileRevision   string `gorm:"column:file_revision"`
	RecordPickled  []byte `gorm:"column:record_pickled"`
	RecordJSONB    []byte `gorm:"column:record_jsonb"`
	CachedAt       time.Time `gorm:"column:cached_at"`
}

func (cacheRecord) TableName() string { return "record" }

// BeforeSave materialises file_identifier/file_revision from the stored
// RecordRevision JSON, standing in for the source schema's SQLite
// generated columns.
func (r *cacheRecord) BeforeSave(tx *gorm.DB) error {
	var rev record.RecordRevision
	if err := json.Unmarshal(r.RecordJSONB, &rev); err != nil {
		return fmt.Errorf("materialising cache row: %w", err)
	}
	r.FileIdentifier = rev.FileIdentifier.String()
	r.FileRevision = rev.FileRevision
	if r.CachedAt.IsZero() {
		r.CachedAt = time.Now().UTC()
	}
	return nil
}

// cacheMeta is the `meta` table: small key/value store holding the
// source-applicability and staleness bookkeeping fields.
type cacheMeta struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

func (cacheMeta) TableName() string { return "meta" }

const (
	metaSourceEndpoint = "source_endpoint"
	metaSourceProject  = "source_project"
	metaSourceRef      = "source_ref"
	metaHeadCommit     = "head_commit"
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&cacheRecord{}, &cacheMeta{})
}
