package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/domain"
	"calai/internal/port"
)

func testClient(t *testing.T) (port.ObjectStorage, string) {
	t.Helper()
	root := t.TempDir()
	c, err := NewLocalClient(root)
	require.NoError(t, err)
	return c, root
}

func TestUploadAndDownload(t *testing.T) {
	c, root := testClient(t)
	ctx := context.Background()

	out, err := c.Upload(ctx, port.UploadInput{
		Key:         "sessions/s1/photos/p1.jpg",
		Body:        strings.NewReader("photo bytes"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sessions", "s1", "photos", "p1.jpg"), out.Location)

	data, err := c.Download(ctx, "sessions/s1/photos/p1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo bytes", string(data))
}

func TestUploadLeavesNoTempFiles(t *testing.T) {
	c, root := testClient(t)

	_, err := c.Upload(context.Background(), port.UploadInput{
		Key:  "a/b.png",
		Body: strings.NewReader("x"),
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.png", entries[0].Name())
}

func TestDownloadMissing(t *testing.T) {
	c, _ := testClient(t)

	_, err := c.Download(context.Background(), "nope.jpg")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	c, _ := testClient(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, port.UploadInput{Key: "gone.jpg", Body: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "gone.jpg"))

	_, err = c.Download(ctx, "gone.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, c.Delete(ctx, "gone.jpg"), domain.ErrNotFound)
}

func TestRejectsEscapingKeys(t *testing.T) {
	c, _ := testClient(t)
	ctx := context.Background()

	for _, key := range []string{"../outside.jpg", "/etc/passwd", "a/../../outside.jpg", "."} {
		_, err := c.Upload(ctx, port.UploadInput{Key: key, Body: strings.NewReader("x")})
		assert.Error(t, err, "key %q", key)

		_, err = c.Download(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestGetPresignedURL(t *testing.T) {
	c, root := testClient(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, port.UploadInput{Key: "p.jpg", Body: strings.NewReader("x")})
	require.NoError(t, err)

	url, err := c.GetPresignedURL(ctx, "p.jpg", 3600)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "p.jpg"))

	abs, err := filepath.Abs(filepath.Join(root, "p.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(abs), url)
}

func TestNewLocalClientRequiresRoot(t *testing.T) {
	_, err := NewLocalClient("")
	assert.Error(t, err)
}
