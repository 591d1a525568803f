package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antarctica/lantern-go/pkg/record"
)

// JSONExporter writes the record's canonical JSON (admin metadata
// stripped) to records/<id>.json (spec.md sec 4.D, "JSON").
type JSONExporter struct {
	Revision record.RecordRevision
}

func (e *JSONExporter) Name() string {
	return fmt.Sprintf("json:%s", e.Revision.FileIdentifier)
}

func (e *JSONExporter) path() string {
	return filepath.Join("records", e.Revision.FileIdentifier.String()+".json")
}

func (e *JSONExporter) body() ([]byte, error) {
	return e.Revision.DumpsJSON(true)
}

func (e *JSONExporter) Export(ctx context.Context, rootDir string) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, body, 0o644)
}

func (e *JSONExporter) Publish(ctx context.Context, pub Publisher) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	meta := map[string]string{
		"file_identifier": e.Revision.FileIdentifier.String(),
		"file_revision":   e.Revision.FileRevision,
	}
	return pub.UploadContent(ctx, e.path(), contentTypeFor(".json"), body, meta, "")
}
