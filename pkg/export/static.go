package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StaticExporter copies the fixed set of static assets (stylesheets,
// fonts, icons, JS) into the output tree and object store (spec.md sec
// 4.D, "Static Resources"). Export is copy-if-absent and never overwrites
// an already-present file; Publish uploads every asset, overwriting any
// existing key.
type StaticExporter struct {
	// Assets maps a path relative to static/ to its content, e.g.
	// "css/main.css" -> bytes. Populated once at startup from an
	// embedded or on-disk asset bundle; out of this package's concern.
	Assets map[string][]byte
}

func (e *StaticExporter) Name() string { return "static-resources" }

func (e *StaticExporter) key(relPath string) string {
	return filepath.Join("static", relPath)
}

func (e *StaticExporter) Export(ctx context.Context, rootDir string) error {
	for relPath, content := range e.Assets {
		dest := filepath.Join(rootDir, e.key(relPath))
		if _, err := os.Stat(dest); err == nil {
			continue // copy-if-absent
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
	}
	return nil
}

func (e *StaticExporter) Publish(ctx context.Context, pub Publisher) error {
	for relPath, content := range e.Assets {
		key := e.key(relPath)
		ct := contentTypeFor(filepath.Ext(relPath))
		if err := pub.UploadContent(ctx, key, ct, content, nil, ""); err != nil {
			return fmt.Errorf("%s: uploading %s: %w", e.Name(), key, err)
		}
	}
	return nil
}
