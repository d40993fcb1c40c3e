package storage

import (
	"strings"

	"asset-pipeline/core/apperror"
)

// Config holds configuration for the remote bucket.
type Config struct {
	// Endpoint is the S3-compatible endpoint of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// KeyID is the application key id used for authentication.
	KeyID string `mapstructure:"key_id" default:""`
	// ApplicationKey is the secret paired with KeyID.
	ApplicationKey string `mapstructure:"application_key" default:""`
	// Bucket is the name of the bucket artifacts are published to.
	Bucket string `mapstructure:"bucket" default:""`
	// BucketID is the provider-side identifier of the bucket.
	BucketID string `mapstructure:"bucket_id" default:""`
	// Region is the location of the bucket (e.g., us-west-004).
	Region string `mapstructure:"region" default:""`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"true"`
	// CDNBaseURL prefixes remote keys to build public URLs.
	// When empty the endpoint and bucket are used instead.
	CDNBaseURL string `mapstructure:"cdn_base_url" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MetadataConcurrency bounds concurrent metadata (stat) requests.
	MetadataConcurrency int `mapstructure:"metadata_concurrency" default:"8"`
}

// Validate fails fast when any required credential field is missing.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.KeyID) == "" {
		missing = append(missing, "key_id")
	}
	if strings.TrimSpace(c.ApplicationKey) == "" {
		missing = append(missing, "application_key")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "bucket")
	}
	if strings.TrimSpace(c.BucketID) == "" {
		missing = append(missing, "bucket_id")
	}
	if len(missing) > 0 {
		return apperror.Configuration("storage credentials incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PublicURL returns the URL an object is served from.
func (c Config) PublicURL(objectName string) string {
	base := strings.TrimSuffix(c.CDNBaseURL, "/")
	if base == "" {
		scheme := "http://"
		if c.UseSSL {
			scheme = "https://"
		}
		endpoint := strings.TrimPrefix(strings.TrimPrefix(c.Endpoint, "http://"), "https://")
		base = scheme + strings.TrimSuffix(endpoint, "/") + "/" + c.Bucket
	}
	return base + "/" + strings.TrimPrefix(objectName, "/")
}
