package storage_test

import (
	"errors"
	"testing"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:       "localhost:9000",
			KeyID:          "testkey",
			ApplicationKey: "testsecret",
			Bucket:         "test-bucket",
			BucketID:       "b-1",
			Region:         "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:       "https://s3.us-west-004.backblazeb2.com",
			KeyID:          "testkey",
			ApplicationKey: "testsecret",
			UseSSL:         true,
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		cfg := storage.Config{KeyID: "k", ApplicationKey: "s", Bucket: "b", BucketID: "id"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("MissingFields", func(t *testing.T) {
		cfg := storage.Config{KeyID: "k", Bucket: " "}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindConfiguration))
		assert.Contains(t, err.Error(), "application_key")
		assert.Contains(t, err.Error(), "bucket,")
		assert.Contains(t, err.Error(), "bucket_id")
		assert.NotContains(t, err.Error(), "key_id")
	})
}

func TestConfig_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
		want string
	}{
		{
			name: "CDN base",
			cfg:  storage.Config{CDNBaseURL: "https://cdn.example.com/file/assets/"},
			want: "https://cdn.example.com/file/assets/proj/assets/content/a.glb",
		},
		{
			name: "Endpoint fallback",
			cfg:  storage.Config{Endpoint: "https://s3.example.com", Bucket: "assets", UseSSL: true},
			want: "https://s3.example.com/assets/proj/assets/content/a.glb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.PublicURL("proj/assets/content/a.glb"))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, storage.IsNotFound(nil))
	assert.False(t, storage.IsNotFound(errors.New("boom")))
	assert.True(t, storage.IsNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}))
}

func TestMetadataValue(t *testing.T) {
	info := minio.ObjectInfo{UserMetadata: minio.StringMap{"X-Amz-Meta-Sha256": "abc"}}
	assert.Equal(t, "abc", storage.MetadataValue(info, "sha256"))
	assert.Equal(t, "", storage.MetadataValue(info, "md5"))
}
