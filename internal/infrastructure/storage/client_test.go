package storage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/infrastructure/storage"
	"github.com/makiti/market-api/pkg/config"
	"github.com/makiti/market-api/pkg/logger"
)

// fakeS3 servidor S3 mínimo: un bucket, su política y contadores de peticiones.
type fakeS3 struct {
	bucket string

	mu        sync.Mutex
	created   bool
	policy    string
	headFails int // próximas HEAD de bucket que responden 403
	policyErr bool

	heads       atomic.Int32
	makes       atomic.Int32
	policyGets  atomic.Int32
	policyPuts  atomic.Int32
	headLatency time.Duration
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		s3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	_, isPolicy := r.URL.Query()["policy"]

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case key == "" && r.Method == http.MethodHead:
		f.heads.Add(1)
		time.Sleep(f.headLatency)
		if f.headFails > 0 {
			f.headFails--
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut && isPolicy:
		f.policyPuts.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.policy = string(body)
		w.WriteHeader(http.StatusNoContent)
	case key == "" && r.Method == http.MethodPut:
		f.makes.Add(1)
		f.created = true
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet && isPolicy:
		f.policyGets.Add(1)
		if f.policyErr {
			s3Error(w, http.StatusForbidden, "AccessDenied")
			return
		}
		if f.policy == "" {
			s3Error(w, http.StatusNotFound, "NoSuchBucketPolicy")
			return
		}
		// el servidor devuelve la política con otro formato
		var buf bytes.Buffer
		_ = json.Indent(&buf, []byte(f.policy), "", "  ")
		_, _ = w.Write(buf.Bytes())
	case key != "" && r.Method == http.MethodGet:
		s3Error(w, http.StatusNotFound, "NoSuchKey")
	case key != "" && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		s3Error(w, http.StatusNotImplemented, "NotImplemented")
	}
}

func s3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><RequestId>test</RequestId></Error>`, code, code)
}

func newFakeClient(t *testing.T, fake *fakeS3, log *logger.Logger) *storage.Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return storage.NewClient(config.StorageConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    fake.bucket,
		Region:    "us-east-1",
	}, log)
}

func TestClient_InicializacionFallidaSeReintenta(t *testing.T) {
	fake := &fakeS3{bucket: "products", headFails: 1}
	c := newFakeClient(t, fake, nil)
	ctx := context.Background()

	err := c.EnsureBucket(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, fake.makes.Load())

	require.NoError(t, c.EnsureBucket(ctx), "el fallo anterior no debe quedar cacheado")
	assert.Equal(t, int32(2), fake.heads.Load())
	assert.Equal(t, int32(1), fake.makes.Load())

	// ya inicializado: no hay más comprobaciones del bucket
	require.NoError(t, c.EnsureBucket(ctx))
	assert.Equal(t, int32(2), fake.heads.Load())
}

func TestClient_PrimerUsoConcurrenteInicializaUnaVez(t *testing.T) {
	fake := &fakeS3{bucket: "products", headLatency: 20 * time.Millisecond}
	c := newFakeClient(t, fake, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.EnsureBucket(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, int32(1), fake.heads.Load())
	assert.Equal(t, int32(1), fake.makes.Load())
}

func TestClient_BucketExistenteNoSeCrea(t *testing.T) {
	fake := &fakeS3{bucket: "products", created: true}
	c := newFakeClient(t, fake, nil)

	require.NoError(t, c.EnsureBucket(context.Background()))
	assert.Zero(t, fake.makes.Load())
}

func TestApplyPublicReadPolicy_NoReescribeSiEsIgual(t *testing.T) {
	fake := &fakeS3{bucket: "products"}
	c := newFakeClient(t, fake, nil)
	ctx := context.Background()

	written, err := c.ApplyPublicReadPolicy(ctx)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, int32(1), fake.policyPuts.Load())
	assert.True(t, storage.SamePolicy(storage.PublicReadPolicy("products"), fake.policy))

	written, err = c.ApplyPublicReadPolicy(ctx)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, int32(2), fake.policyGets.Load())
	assert.Equal(t, int32(1), fake.policyPuts.Load(), "misma política: no se escribe")
}

func TestApplyPublicReadPolicy_ReemplazaPoliticaDistinta(t *testing.T) {
	fake := &fakeS3{bucket: "products", policy: `{"Version":"2012-10-17","Statement":[]}`}
	c := newFakeClient(t, fake, nil)

	written, err := c.ApplyPublicReadPolicy(context.Background())
	require.NoError(t, err)
	assert.True(t, written)
	assert.True(t, storage.SamePolicy(storage.PublicReadPolicy("products"), fake.policy))
}

func TestPrepare_FalloDePoliticaSoloAdvierte(t *testing.T) {
	fake := &fakeS3{bucket: "products", policyErr: true}
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf})
	c := newFakeClient(t, fake, log)

	_, err := c.ApplyPublicReadPolicy(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)

	buf.Reset()
	require.NoError(t, c.Prepare(context.Background()))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "política de lectura pública")
	assert.Zero(t, fake.policyPuts.Load())
}

func TestPrepare_FalloDeBucketEsError(t *testing.T) {
	fake := &fakeS3{bucket: "products", headFails: 1}
	c := newFakeClient(t, fake, nil)

	err := c.Prepare(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, fake.policyGets.Load())
}

func TestClient_ObjetoInexistente(t *testing.T) {
	fake := &fakeS3{bucket: "products", created: true}
	c := newFakeClient(t, fake, nil)
	ctx := context.Background()

	_, err := c.GetObject(ctx, "nada.jpg")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	assert.NoError(t, c.RemoveObject(ctx, "nada.jpg"))
}
