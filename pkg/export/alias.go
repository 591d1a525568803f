package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antarctica/lantern-go/pkg/record"
)

// AliasExporter writes the redirect page for one alias identifier of a
// record (spec.md sec 4.D, "HTML Aliases").
type AliasExporter struct {
	Revision   record.RecordRevision
	AliasPath  string // e.g. "datasets/foo"
	ItemTarget string // "/items/<id>/"
}

func (e *AliasExporter) Name() string {
	return fmt.Sprintf("alias:%s", e.AliasPath)
}

func (e *AliasExporter) path() string {
	return filepath.Join(e.AliasPath, "index.html")
}

// DumpsRedirect renders a minimal refresh-redirect HTML document to
// target, satisfying the testable property in spec.md sec 8 (must contain
// a DOCTYPE and a `refresh" content="0;url=<target>"` meta tag).
func DumpsRedirect(target string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0;url=%s">
<title>Redirecting&hellip;</title>
</head>
<body>
<p>Redirecting to <a href="%s">%s</a>&hellip;</p>
</body>
</html>
`, target, target, target))
}

func (e *AliasExporter) Export(ctx context.Context, rootDir string) error {
	dest := filepath.Join(rootDir, e.path())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, DumpsRedirect(e.ItemTarget), 0o644)
}

func (e *AliasExporter) Publish(ctx context.Context, pub Publisher) error {
	redirectTarget := filepath.Join("/items", e.Revision.FileIdentifier.String(), "index.html")
	return pub.UploadContent(ctx, e.path(), contentTypeFor(".html"), DumpsRedirect(e.ItemTarget), nil, redirectTarget)
}
