// Package export implements the per-format resource exporters and
// site-level exporters, fanned out by a Coordinator across the shared
// worker pool (spec.md sec 4.D), grounded on the teacher's
// pkg/workspace.WorkspaceProvider interface-segregation style and
// pkg/indexer/pipeline.go's job-execution pattern.
package export

import "context"

// Exporter is the contract every resource- and site-level exporter
// implements: a name for logging, a local-filesystem export, and an
// object-store publish (spec.md sec 4.D, "Contract").
type Exporter interface {
	Name() string
	Export(ctx context.Context, rootDir string) error
	Publish(ctx context.Context, pub Publisher) error
}

// Publisher is the subset of pkg/publish/s3pub.Client's surface the
// exporters need, kept as an interface here to avoid export depending on
// the concrete AWS SDK client (spec.md sec 4.E).
type Publisher interface {
	UploadContent(ctx context.Context, key, contentType string, body []byte, meta map[string]string, redirect string) error
	UploadDirectory(ctx context.Context, localDir, baseKey, contentType string) error
	UploadPackageResources(ctx context.Context, localDir, baseKey, contentType string) error
}

// TemplateRenderer renders a named template against a data value. Actual
// template bodies are opaque fixtures out of this repo's scope (spec.md
// sec 1, "Deliberately out of scope... web-page HTML template rendering");
// this interface is the seam the exporters call through.
type TemplateRenderer interface {
	Render(name string, data any) ([]byte, error)
}

// ISOCodec encodes a record revision to ISO 19115-2 XML. The codec itself
// is a pre-existing external library, invoked for encode/decode only
// (spec.md sec 1); this interface is the seam.
type ISOCodec interface {
	EncodeXML(rev any) ([]byte, error)
}

// contentTypeByExt mirrors spec.md sec 6's fixed MIME-type table.
var contentTypeByExt = map[string]string{
	".css":  "text/css",
	".html": "text/html",
	".json": "application/json",
	".xml":  "application/xml",
	".xsl":  "application/xslt+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",
	".ttf":  "font/ttf",
	".txt":  "text/plain",
}

func contentTypeFor(ext string) string {
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
