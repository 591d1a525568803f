// Package s3pub implements the object-storage publish target used by
// pkg/export's Coordinator in publish mode (spec.md sec 4.E), generalized
// from the teacher's pkg/workspace/adapters/s3.Adapter — same AWS SDK v2
// client construction and custom-endpoint/path-style support, retargeted
// from document storage to static-site asset publishing.
package s3pub

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-hclog"
)

// Config describes the bucket a site is published into, including the
// MinIO-style overrides the teacher's adapter supports (spec.md sec 4.E).
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string // non-empty selects a custom (e.g. MinIO) endpoint
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
}

func (c *Config) SetDefaults() {
	if c.Region == "" {
		c.Region = "eu-west-1"
	}
}

func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("s3pub: bucket must be set")
	}
	return nil
}

// Client is the publish target implementing export.Publisher.
type Client struct {
	s3  *s3.Client
	cfg Config
	log hclog.Logger
}

// NewClient constructs a Client and verifies the bucket is reachable.
func NewClient(ctx context.Context, cfg Config, log hclog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if log == nil {
		log = hclog.NewNullLogger()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3pub: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		} else if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	c := &Client{s3: client, cfg: cfg, log: log.Named("s3pub")}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("s3pub: bucket %s not accessible: %w", cfg.Bucket, err)
	}
	return c, nil
}

// CalcKey joins baseKey and relPath into an S3 object key, always using
// forward slashes regardless of host OS (spec.md sec 4.E).
func CalcKey(baseKey, relPath string) string {
	baseKey = strings.Trim(baseKey, "/")
	relPath = strings.Trim(filepath.ToSlash(relPath), "/")
	if baseKey == "" {
		return relPath
	}
	if relPath == "" {
		return baseKey
	}
	return baseKey + "/" + relPath
}

// UploadContent uploads a single in-memory object. An optional redirect
// sets the S3 website-redirect-location header, used by alias pages
// (spec.md sec 4.D, "HTML Aliases").
func (c *Client) UploadContent(ctx context.Context, key, contentType string, body []byte, meta map[string]string, redirect string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if len(meta) > 0 {
		input.Metadata = meta
	}
	if redirect != "" {
		input.WebsiteRedirectLocation = aws.String(redirect)
	}
	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3pub: uploading %s: %w", key, err)
	}
	return nil
}

// UploadDirectory uploads every file under localDir, keyed by baseKey +
// its path relative to localDir (spec.md sec 4.E).
func (c *Client) UploadDirectory(ctx context.Context, localDir, baseKey, contentType string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ct := contentType
		if ct == "" {
			ct = contentTypeForExt(filepath.Ext(path))
		}
		return c.UploadContent(ctx, CalcKey(baseKey, rel), ct, body, nil, "")
	})
}

// UploadPackageResources uploads localDir's files but skips any key that
// already exists with an identical SHA-256 digest — the copy-if-absent
// semantics shared static assets and XSLT stylesheets need (spec.md sec
// 4.D, "Static Resources... copy-if-absent").
func (c *Client) UploadPackageResources(ctx context.Context, localDir, baseKey, contentType string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		key := CalcKey(baseKey, rel)
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		unchanged, err := c.unchanged(ctx, key, body)
		if err != nil {
			return err
		}
		if unchanged {
			return nil
		}
		ct := contentType
		if ct == "" {
			ct = contentTypeForExt(filepath.Ext(path))
		}
		return c.UploadContent(ctx, key, ct, body, map[string]string{"sha256": sha256Hex(body)}, "")
	})
}

func (c *Client) unchanged(ctx context.Context, key string, body []byte) (bool, error) {
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(c.cfg.Bucket), Key: aws.String(key)})
	if err != nil {
		return false, nil // not found or inaccessible: treat as needing upload
	}
	existing, ok := out.Metadata["sha256"]
	if !ok {
		return false, nil
	}
	return existing == sha256Hex(body), nil
}

// EmptyBucket deletes every object under the bucket, paginating through
// ListObjectsV2 (spec.md sec 4.E, used before a full site republish).
func (c *Client) EmptyBucket(ctx context.Context) error {
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{Bucket: aws.String(c.cfg.Bucket)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3pub: listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			if _, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(c.cfg.Bucket), Key: obj.Key}); err != nil {
				return fmt.Errorf("s3pub: deleting %s: %w", aws.ToString(obj.Key), err)
			}
		}
	}
	c.log.Info("emptied bucket", "bucket", c.cfg.Bucket)
	return nil
}

func sha256Hex(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

var contentTypeByExtFallback = map[string]string{
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

func contentTypeForExt(ext string) string {
	if ct, ok := contentTypeByExtFallback[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
