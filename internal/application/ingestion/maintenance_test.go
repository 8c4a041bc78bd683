package ingestion_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/application/ingestion"
)

func TestCleanupLegacy_SoloPrefijoAntiguo(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.PutObject(ctx, "products/a.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, f.store.PutObject(ctx, "products/b.jpg", []byte("b"), "image/jpeg"))
	require.NoError(t, f.store.PutObject(ctx, "c.jpg", []byte("c"), "image/jpeg"))

	m := ingestion.NewMaintenance(f.pipeline, nil, f.catalog, 2)

	removed, err := m.CleanupLegacy(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"products/a.jpg", "products/b.jpg"}, removed)

	left, err := f.store.ListObjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "c.jpg", left[0].Key)
}

func TestUploadLocal(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	conFoto := f.product(t)
	sinFoto := f.product(t)
	yaPublicado := f.product(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, conFoto.ID+".jpg"), jpegBytes(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, yaPublicado.ID+".jpg"), pngBytes(t), 0o644))
	_, err := f.svc.AttachImage(ctx, yaPublicado.ID, pngBytes(t), "")
	require.NoError(t, err)

	m := ingestion.NewMaintenance(f.pipeline, f.svc, f.catalog, 2)
	sum, err := m.UploadLocal(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, int64(1), sum.Uploaded)
	assert.Equal(t, int64(1), sum.Skipped)
	assert.Equal(t, int64(1), sum.NotFound)
	assert.Zero(t, sum.Failed)

	got, err := f.catalog.GetByID(ctx, conFoto.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, baseURL+"/"+conFoto.ID+".jpg", *got.ImageURL)

	got, err = f.catalog.GetByID(ctx, sinFoto.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)
}

func TestUploadLocal_ReSubeSiFaltaElObjeto(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	_, err := f.svc.AttachImage(ctx, p.ID, jpegBytes(t), "")
	require.NoError(t, err)
	require.NoError(t, f.store.RemoveObject(ctx, p.ID+".jpg"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, p.ID+".jpg"), jpegBytes(t), 0o644))

	sum, err := ingestion.NewMaintenance(f.pipeline, f.svc, f.catalog, 1).UploadLocal(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Uploaded)

	_, err = f.store.StatObject(ctx, p.ID+".jpg")
	assert.NoError(t, err)
}
