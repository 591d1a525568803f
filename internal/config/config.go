// Package config loads the flat, environment-variable-driven
// configuration surface described in spec.md sec 6, generalized from the
// teacher's `internal/config` HCL-decoded struct to a thin os.Getenv/
// strconv reader (the teacher's canonical config format is HCL; this
// spec's is flat env vars, so the decoding mechanism differs even though
// the struct-validation style — required-field checks via
// go-ozzo/ozzo-validation/v4 — is carried over, per DESIGN.md).
package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strconv"

	jose "github.com/go-jose/go-jose/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the complete process configuration, loaded once at startup
// and threaded through Store/Cache/Exporters/Publisher/Verification
// (SPEC_FULL.md sec 2, component G).
type Config struct {
	LogLevel           string
	ParallelJobs       int
	SentryDSN          string
	SentryEnvironment  string
	EnableFeatureSentry bool

	StoreGitLabEndpoint  string
	StoreGitLabToken     string
	StoreGitLabProjectID string
	StoreGitLabBranch    string
	StoreGitLabCachePath string

	ExportPath string
	BaseURL    string

	AWSS3Bucket      string
	AWSAccessID      string
	AWSAccessSecret  string

	AdminMetadataEncryptionKeyPrivate string // JWK
	AdminMetadataSigningKeyPublic     string // JWK

	TemplatesPlausibleDomain           string
	TemplatesItemContactEndpoint       string
	TemplatesItemMapsEndpoint          string
	TemplatesItemVersionsEndpoint      string
	TemplatesItemContactTurnstileKey   string

	VerifySharePointProxyEndpoint string
	VerifySANProxyEndpoint        string
}

// envPrefix is the common namespace token every variable is prefixed by
// (spec.md sec 6, "all prefixed by a common namespace token").
const envPrefix = "LANTERN_"

func getenv(key string) string { return os.Getenv(envPrefix + key) }

// Load reads Config from the process environment.
func Load() (*Config, error) {
	c := &Config{
		LogLevel:            getenv("LOG_LEVEL"),
		SentryDSN:           getenv("SENTRY_DSN"),
		SentryEnvironment:   getenv("SENTRY_ENVIRONMENT"),
		EnableFeatureSentry: getenvBool("ENABLE_FEATURE_SENTRY"),

		StoreGitLabEndpoint:  getenv("STORE_GITLAB_ENDPOINT"),
		StoreGitLabToken:     getenv("STORE_GITLAB_TOKEN"),
		StoreGitLabProjectID: getenv("STORE_GITLAB_PROJECT_ID"),
		StoreGitLabBranch:    getenv("STORE_GITLAB_BRANCH"),
		StoreGitLabCachePath: getenv("STORE_GITLAB_CACHE_PATH"),

		ExportPath: getenv("EXPORT_PATH"),
		BaseURL:    getenv("BASE_URL"),

		AWSS3Bucket:     getenv("AWS_S3_BUCKET"),
		AWSAccessID:     getenv("AWS_ACCESS_ID"),
		AWSAccessSecret: getenv("AWS_ACCESS_SECRET"),

		AdminMetadataEncryptionKeyPrivate: getenv("ADMIN_METADATA_ENCRYPTION_KEY_PRIVATE"),
		AdminMetadataSigningKeyPublic:     getenv("ADMIN_METADATA_SIGNING_KEY_PUBLIC"),

		TemplatesPlausibleDomain:         getenv("TEMPLATES_PLAUSIBLE_DOMAIN"),
		TemplatesItemContactEndpoint:     getenv("TEMPLATES_ITEM_CONTACT_ENDPOINT"),
		TemplatesItemMapsEndpoint:        getenv("TEMPLATES_ITEM_MAPS_ENDPOINT"),
		TemplatesItemVersionsEndpoint:    getenv("TEMPLATES_ITEM_VERSIONS_ENDPOINT"),
		TemplatesItemContactTurnstileKey: getenv("TEMPLATES_ITEM_CONTACT_TURNSTILE_KEY"),

		VerifySharePointProxyEndpoint: getenv("VERIFY_SHAREPOINT_PROXY_ENDPOINT"),
		VerifySANProxyEndpoint:        getenv("VERIFY_SAN_PROXY_ENDPOINT"),
	}

	parallelJobs, err := getenvInt("PARALLEL_JOBS", 1)
	if err != nil {
		return nil, err
	}
	c.ParallelJobs = parallelJobs

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func getenvBool(key string) bool {
	v, _ := strconv.ParseBool(getenv(key))
	return v
}

func getenvInt(key string, fallback int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer: %w", envPrefix, key, err)
	}
	return v, nil
}

// AdminKeys parses the configured JWK strings into the keypair used to
// unseal administrative_metadata tokens (spec.md sec 3).
func (c *Config) AdminKeys() (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	var encJWK, sigJWK jose.JSONWebKey
	if err := encJWK.UnmarshalJSON([]byte(c.AdminMetadataEncryptionKeyPrivate)); err != nil {
		return nil, nil, fmt.Errorf("parsing encryption key: %w", err)
	}
	if err := sigJWK.UnmarshalJSON([]byte(c.AdminMetadataSigningKeyPublic)); err != nil {
		return nil, nil, fmt.Errorf("parsing signing key: %w", err)
	}
	encKey, ok := encJWK.Key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("encryption key is not an ECDSA private key")
	}
	sigKey, ok := sigJWK.Key.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("signing key is not an ECDSA public key")
	}
	return encKey, sigKey, nil
}

// Validate checks the required fields every publishing run needs
// (spec.md sec 6).
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StoreGitLabEndpoint, validation.Required),
		validation.Field(&c.StoreGitLabToken, validation.Required),
		validation.Field(&c.StoreGitLabProjectID, validation.Required),
		validation.Field(&c.StoreGitLabCachePath, validation.Required),
		validation.Field(&c.BaseURL, validation.Required),
	)
}
