package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antarctica/lantern-go/pkg/record"
)

// ISOExporter serialises a RecordRevision to ISO 19115-2 XML via the
// external ISO codec (spec.md sec 4.D, "ISO XML").
type ISOExporter struct {
	Revision record.RecordRevision
	Codec    ISOCodec
}

func (e *ISOExporter) Name() string {
	return fmt.Sprintf("iso-xml:%s", e.Revision.FileIdentifier)
}

func (e *ISOExporter) path() string {
	return filepath.Join("records", e.Revision.FileIdentifier.String()+".xml")
}

func (e *ISOExporter) body() ([]byte, error) {
	return e.Codec.EncodeXML(e.Revision)
}

func (e *ISOExporter) Export(ctx context.Context, rootDir string) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: encoding iso xml: %w", e.Name(), err)
	}
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, body, 0o644)
}

func (e *ISOExporter) Publish(ctx context.Context, pub Publisher) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: encoding iso xml: %w", e.Name(), err)
	}
	meta := map[string]string{
		"file_identifier": e.Revision.FileIdentifier.String(),
		"file_revision":   e.Revision.FileRevision,
	}
	return pub.UploadContent(ctx, e.path(), contentTypeFor(".xml"), body, meta, "")
}
