package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploaderValidatesConfig(t *testing.T) {
	_, err := NewUploader(Config{Region: "ap-southeast-1", AccessKey: "a", SecretKey: "b"})
	require.Error(t, err)

	_, err = NewUploader(Config{Bucket: "exports", Region: "ap-southeast-1", PublicBaseURL: "https://cdn.example.com"})
	require.Error(t, err)

	u, err := NewUploader(Config{Bucket: "exports", Region: "ap-southeast-1", AccessKey: "a", SecretKey: "b", PublicBaseURL: "https://cdn.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ledger-exports", u.cfg.Prefix)
}

func TestGenerateKeyUsesDatedPrefix(t *testing.T) {
	u, err := NewUploader(Config{Bucket: "exports", Region: "ap-southeast-1", AccessKey: "a", SecretKey: "b", PublicBaseURL: "https://cdn.example.com", Prefix: "/reports/"})
	require.NoError(t, err)
	u.now = func() time.Time { return time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC) }

	key := u.generateKey(ContentTypeCSV)
	assert.True(t, strings.HasPrefix(key, "reports/2026/03/07/"), key)
	assert.True(t, strings.HasSuffix(key, ".csv"), key)
}

func TestExtensionFromContentType(t *testing.T) {
	assert.Equal(t, ".csv", extensionFromContentType("TEXT/CSV"))
	assert.Equal(t, ".json", extensionFromContentType(ContentTypeJSON))
	assert.Equal(t, ".bin", extensionFromContentType("image/png"))
}

func TestPresignGetSignsPrivateObjects(t *testing.T) {
	u, err := NewUploader(Config{
		Endpoint:     "https://s3.example.com",
		Region:       "ap-southeast-1",
		AccessKey:    "access",
		SecretKey:    "secret",
		Bucket:       "exports",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	url, err := u.presignGet(context.Background(), "ledger-exports/2026/03/07/x.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://s3.example.com/exports/ledger-exports/2026/03/07/x.csv?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=86400")
}
