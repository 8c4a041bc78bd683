package ingestion_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/application/dto"
	"github.com/makiti/market-api/internal/application/ingestion"
	"github.com/makiti/market-api/internal/application/usecase"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/infrastructure/memory"
)

type fakeDownloader struct {
	data        []byte
	contentType string
	err         error
	calls       []string
}

func (f *fakeDownloader) Download(_ context.Context, url string) ([]byte, string, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, f.contentType, nil
}

type imageFixture struct {
	svc      *ingestion.ProductImageService
	pipeline *ingestion.Pipeline
	catalog  *usecase.ProductUseCase
	store    *memory.ObjectStorage
	queue    *memory.JobQueue
	dl       *fakeDownloader
}

func newImageFixture(t *testing.T) *imageFixture {
	t.Helper()
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	repo := memory.NewProductRepository()
	catalog := usecase.NewProductUseCase(repo, repo, nil)
	store := memory.NewObjectStorage(baseURL)
	queue := memory.NewJobQueue()
	dl := &fakeDownloader{}
	pipeline := ingestion.NewPipeline(store, pool, nil)
	return &imageFixture{
		svc:      ingestion.NewProductImageService(pipeline, catalog, queue, dl, "images"),
		pipeline: pipeline,
		catalog:  catalog,
		store:    store,
		queue:    queue,
		dl:       dl,
	}
}

func (f *imageFixture) product(t *testing.T) *dto.ProductResponse {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), dto.CreateProductRequest{
		Name:     "Mangues",
		Price:    decimal.NewFromInt(500),
		Category: "Fruits",
	})
	require.NoError(t, err)
	return p
}

func TestAttachImage_PublicaYAsignaURL(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	out, err := f.svc.AttachImage(ctx, p.ID, jpegBytes(t), "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, out.ImageURL)
	assert.Equal(t, baseURL+"/"+p.ID+".jpg", *out.ImageURL)
	assert.True(t, out.UpdatedAt.After(p.UpdatedAt))

	_, err = f.store.StatObject(ctx, p.ID+".jpg")
	assert.NoError(t, err)
}

func TestAttachImage_ProductoInexistente(t *testing.T) {
	f := newImageFixture(t)
	_, err := f.svc.AttachImage(context.Background(), "no-existe", jpegBytes(t), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	objs, _ := f.store.ListObjects(context.Background(), "")
	assert.Empty(t, objs)
}

func TestAttachImage_DecodeNoTocaElProducto(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	_, err := f.svc.AttachImage(ctx, p.ID, []byte("basura"), "image/png")
	assert.ErrorIs(t, err, domain.ErrDecode)

	got, err := f.catalog.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)
	assert.Equal(t, p.UpdatedAt, got.UpdatedAt)
}

func TestDetachImage_BorraObjetoYURL(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	_, err := f.svc.AttachImage(ctx, p.ID, pngBytes(t), "")
	require.NoError(t, err)

	out, err := f.svc.DetachImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, out.ImageURL)

	_, err = f.store.StatObject(ctx, p.ID+".jpg")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	_, err = f.svc.DetachImage(ctx, p.ID)
	assert.NoError(t, err, "sin objeto también es éxito")
}

func TestImportFromURL(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)
	f.dl.data = gifBytes(t)
	f.dl.contentType = "image/gif"

	out, err := f.svc.ImportFromURL(ctx, p.ID, "https://cdn.example.com/mangue.gif")
	require.NoError(t, err)
	require.NotNil(t, out.ImageURL)
	assert.Equal(t, []string{"https://cdn.example.com/mangue.gif"}, f.dl.calls)

	info, err := f.store.StatObject(ctx, p.ID+".jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestImportFromURL_ErrorDeDescarga(t *testing.T) {
	f := newImageFixture(t)
	p := f.product(t)
	f.dl.err = errors.New("timeout")

	_, err := f.svc.ImportFromURL(context.Background(), p.ID, "https://cdn.example.com/x.jpg")
	assert.EqualError(t, err, "timeout")
}

func TestRequestImport_EncolaTrabajo(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	res, err := f.svc.RequestImport(ctx, dto.ImageImportRequest{ProductID: p.ID, SourceURL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, "images", res.Queue)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, ingestion.JobTypeImageImport, jobs[0].Type)
	assert.Equal(t, "images", jobs[0].Queue)

	var payload dto.ImageImportPayload
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &payload))
	assert.Equal(t, p.ID, payload.ProductID)
	assert.Equal(t, "https://cdn.example.com/a.png", payload.SourceURL)
}

func TestRequestImport_Validaciones(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)

	_, err := f.svc.RequestImport(ctx, dto.ImageImportRequest{ProductID: p.ID, SourceURL: "ftp://x/y.jpg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.RequestImport(ctx, dto.ImageImportRequest{SourceURL: "https://x/y.jpg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.RequestImport(ctx, dto.ImageImportRequest{ProductID: "otro", SourceURL: "https://x/y.jpg"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, f.queue.Jobs())
}

func TestHandleImportJob(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	p := f.product(t)
	f.dl.data = jpegBytes(t)

	payload, err := json.Marshal(dto.ImageImportPayload{ProductID: p.ID, SourceURL: "http://img.local/p.jpg"})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleImportJob(ctx, payload))

	got, err := f.catalog.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageURL)

	assert.ErrorIs(t, f.svc.HandleImportJob(ctx, json.RawMessage(`{`)), domain.ErrInvalidInput)
}
