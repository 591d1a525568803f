package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antarctica/lantern-go/pkg/record"
)

// isoHTMLStylesheetKey is the location of the XSLT stylesheet assets
// shared by every ISO XML HTML export (spec.md sec 4.D). Export copies
// them there only if absent; Publish uploads them with every record.
const isoHTMLStylesheetKey = "static/xsl/iso-html/"

// ISOHTMLExporter prepends an XSLT stylesheet processing instruction to
// the record's ISO XML and serves it at records/<id>.html (spec.md sec
// 4.D, "ISO XML HTML").
type ISOHTMLExporter struct {
	Revision         record.RecordRevision
	Codec            ISOCodec
	StylesheetHref   string
	StylesheetAssets map[string][]byte // relative path -> content
}

func (e *ISOHTMLExporter) Name() string {
	return fmt.Sprintf("iso-html:%s", e.Revision.FileIdentifier)
}

func (e *ISOHTMLExporter) path() string {
	return filepath.Join("records", e.Revision.FileIdentifier.String()+".html")
}

func (e *ISOHTMLExporter) body() ([]byte, error) {
	xml, err := e.Codec.EncodeXML(e.Revision)
	if err != nil {
		return nil, err
	}
	pi := fmt.Sprintf(`<?xml-stylesheet type="text/xsl" href=%q?>`+"\n", e.StylesheetHref)
	return append([]byte(pi), xml...), nil
}

func (e *ISOHTMLExporter) Export(ctx context.Context, rootDir string) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: encoding stylesheeted xml: %w", e.Name(), err)
	}
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return err
	}
	return e.exportStylesheetAssets(filepath.Join(rootDir, isoHTMLStylesheetKey))
}

func (e *ISOHTMLExporter) exportStylesheetAssets(dir string) error {
	if len(e.StylesheetAssets) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range e.StylesheetAssets {
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			continue // copy-if-absent: stylesheet assets never change
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (e *ISOHTMLExporter) Publish(ctx context.Context, pub Publisher) error {
	body, err := e.body()
	if err != nil {
		return fmt.Errorf("%s: encoding stylesheeted xml: %w", e.Name(), err)
	}
	meta := map[string]string{
		"file_identifier": e.Revision.FileIdentifier.String(),
		"file_revision":   e.Revision.FileRevision,
	}
	if err := pub.UploadContent(ctx, e.path(), contentTypeFor(".html"), body, meta, ""); err != nil {
		return err
	}
	for name, content := range e.StylesheetAssets {
		key := isoHTMLStylesheetKey + name
		if err := pub.UploadContent(ctx, key, contentTypeFor(filepath.Ext(name)), content, nil, ""); err != nil {
			return err
		}
	}
	return nil
}
