package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticExporterExportIsCopyIfAbsent(t *testing.T) {
	e := &StaticExporter{Assets: map[string][]byte{"css/main.css": []byte("body{}")}}
	dir := t.TempDir()

	require.NoError(t, e.Export(context.Background(), dir))
	dest := filepath.Join(dir, "static", "css", "main.css")
	require.FileExists(t, dest)

	require.NoError(t, os.WriteFile(dest, []byte("custom"), 0o644))
	require.NoError(t, e.Export(context.Background(), dir))

	body, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "custom", string(body), "existing asset must not be overwritten")
}

type recordingPublisher struct {
	uploaded  map[string][]byte
	redirects map[string]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{uploaded: map[string][]byte{}, redirects: map[string]string{}}
}

func (p *recordingPublisher) UploadContent(_ context.Context, key, _ string, body []byte, _ map[string]string, redirect string) error {
	p.uploaded[key] = body
	p.redirects[key] = redirect
	return nil
}

func (p *recordingPublisher) UploadDirectory(_ context.Context, _, _, _ string) error { return nil }

func (p *recordingPublisher) UploadPackageResources(_ context.Context, _, _, _ string) error {
	return nil
}

func TestStaticExporterPublishUploadsEveryAsset(t *testing.T) {
	e := &StaticExporter{Assets: map[string][]byte{
		"css/main.css": []byte("body{}"),
		"js/app.js":    []byte("console.log(1)"),
	}}
	pub := newRecordingPublisher()
	require.NoError(t, e.Publish(context.Background(), pub))
	require.Len(t, pub.uploaded, 2)
	require.Equal(t, []byte("body{}"), pub.uploaded[filepath.Join("static", "css", "main.css")])
}
