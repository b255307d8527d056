//go:build integration

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(ctx context.Context, t *testing.T) (*DocumentArchive, *testutil.RustFSContainer) {
	t.Helper()

	rc := testutil.NewRustFSContainer(ctx, t)

	archive, err := NewDocumentArchive(ctx, ArchiveConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     rc.AccessKey,
		SecretAccessKey: rc.SecretKey,
		Bucket:          "docqa-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))

	return archive, rc
}

func TestDocumentArchive_PutAndFetch(t *testing.T) {
	ctx := context.Background()
	archive, rc := newTestArchive(ctx, t)
	defer rc.Terminate(ctx)

	content := []byte("refunds are accepted within 30 days")
	require.NoError(t, archive.Put(ctx, "handbook.txt", "text/plain", content))

	data, contentType, err := archive.Fetch(ctx, "handbook.txt")
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "text/plain", contentType)
}

func TestDocumentArchive_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	archive, rc := newTestArchive(ctx, t)
	defer rc.Terminate(ctx)

	require.NoError(t, archive.Put(ctx, "doc-1", "text/plain", []byte("first")))
	require.NoError(t, archive.Put(ctx, "doc-1", "text/csv", []byte("second")))

	data, contentType, err := archive.Fetch(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, "text/csv", contentType)
}

func TestDocumentArchive_Delete(t *testing.T) {
	ctx := context.Background()
	archive, rc := newTestArchive(ctx, t)
	defer rc.Terminate(ctx)

	require.NoError(t, archive.Put(ctx, "doc-1", "text/plain", []byte("data")))
	require.NoError(t, archive.Delete(ctx, "doc-1"))

	_, _, err := archive.Fetch(ctx, "doc-1")
	assert.Error(t, err)
}

func TestDocumentArchive_DownloadURL(t *testing.T) {
	ctx := context.Background()
	archive, rc := newTestArchive(ctx, t)
	defer rc.Terminate(ctx)

	require.NoError(t, archive.Put(ctx, "doc-1", "text/plain", []byte("data")))

	url, err := archive.DownloadURL(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "documents/doc-1"))
	assert.True(t, strings.Contains(url, "X-Amz-Signature"))
}

func TestDocumentArchive_EnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()
	archive, rc := newTestArchive(ctx, t)
	defer rc.Terminate(ctx)

	// Already created by the helper; repeating must not fail.
	require.NoError(t, archive.EnsureBucket(ctx))
}
