package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// pageSpec describes one fixed site page and the path it is served from.
type pageSpec struct {
	template string
	path     string
}

// sitePages is the fixed set of legal and error pages every deployment
// carries (spec.md sec 4.D, "Site Pages").
var sitePages = []pageSpec{
	{template: "_views/legal/cookies.html.j2", path: filepath.Join("legal", "cookies", "index.html")},
	{template: "_views/legal/privacy.html.j2", path: filepath.Join("legal", "privacy", "index.html")},
	{template: "_views/legal/accessibility.html.j2", path: filepath.Join("legal", "accessibility", "index.html")},
	{template: "_views/legal/copyright.html.j2", path: filepath.Join("legal", "copyright", "index.html")},
	{template: "_views/404.html.j2", path: "404.html"},
}

// PagesExporter renders the fixed legal/404 page set (spec.md sec 4.D,
// "Site Pages").
type PagesExporter struct {
	Renderer TemplateRenderer
}

func (e *PagesExporter) Name() string { return "site-pages" }

func (e *PagesExporter) render(spec pageSpec) ([]byte, error) {
	body, err := e.Renderer.Render(spec.template, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: rendering %s: %w", e.Name(), spec.template, err)
	}
	return body, nil
}

func (e *PagesExporter) Export(ctx context.Context, rootDir string) error {
	for _, spec := range sitePages {
		body, err := e.render(spec)
		if err != nil {
			return err
		}
		dest := filepath.Join(rootDir, spec.path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, body, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (e *PagesExporter) Publish(ctx context.Context, pub Publisher) error {
	for _, spec := range sitePages {
		body, err := e.render(spec)
		if err != nil {
			return err
		}
		if err := pub.UploadContent(ctx, spec.path, contentTypeFor(".html"), body, nil, ""); err != nil {
			return fmt.Errorf("%s: uploading %s: %w", e.Name(), spec.path, err)
		}
	}
	return nil
}
