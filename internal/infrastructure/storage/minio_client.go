// Package storage adaptador de almacenamiento de objetos S3 compatible (MinIO) con minio-go.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/pkg/config"
	"github.com/makiti/market-api/pkg/logger"
)

var _ ports.ObjectStorage = (*Client)(nil)

// Client cliente único y perezoso. La conexión y la verificación del bucket se hacen en el primer uso;
// si fallan, el siguiente uso reintenta.
type Client struct {
	cfg config.StorageConfig
	log *logger.Logger

	mu     sync.Mutex
	client *minio.Client
}

// NewClient no abre conexiones.
func NewClient(cfg config.StorageConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{cfg: cfg, log: log.Component("storage")}
}

// Bucket nombre del bucket configurado.
func (c *Client) Bucket() string {
	return c.cfg.Bucket
}

// conn devuelve el cliente inicializado, creando conexión y bucket la primera vez.
func (c *Client) conn(ctx context.Context) (*minio.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	mc, err := minio.New(c.cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.cfg.AccessKey, c.cfg.SecretKey, ""),
		Secure: c.cfg.UseSSL,
		Region: c.cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cliente minio: %v", domain.ErrUnavailable, err)
	}
	if err := ensureBucket(ctx, mc, c.cfg.Bucket, c.cfg.Region); err != nil {
		return nil, err
	}
	c.log.Info().Str("endpoint", c.cfg.Endpoint).Str("bucket", c.cfg.Bucket).Msg("almacenamiento de objetos listo")
	c.client = mc
	return mc, nil
}

func ensureBucket(ctx context.Context, mc *minio.Client, bucket, region string) error {
	exists, err := mc.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%w: comprobar bucket %s: %v", domain.ErrUnavailable, bucket, err)
	}
	if exists {
		return nil
	}
	if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		// otra instancia pudo crearlo entre medias
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("%w: crear bucket %s: %v", domain.ErrUnavailable, bucket, err)
	}
	return nil
}

// EnsureBucket crea el bucket si no existe. Idempotente.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.conn(ctx)
	return err
}

// PublicReadPolicy política de lectura anónima (s3:GetObject) sobre todos los objetos del bucket.
func PublicReadPolicy(bucket string) string {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Effect":    "Allow",
				"Principal": map[string]any{"AWS": []string{"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{"arn:aws:s3:::" + bucket + "/*"},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}

// SamePolicy compara dos documentos de política ignorando formato y orden de claves.
func SamePolicy(a, b string) bool {
	ca, errA := canonicalJSON(a)
	cb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func canonicalJSON(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("política vacía")
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// ApplyPublicReadPolicy aplica la política de lectura pública; si la actual es igual no escribe nada.
// Devuelve true si la política se escribió.
func (c *Client) ApplyPublicReadPolicy(ctx context.Context) (bool, error) {
	mc, err := c.conn(ctx)
	if err != nil {
		return false, err
	}
	want := PublicReadPolicy(c.cfg.Bucket)
	current, err := mc.GetBucketPolicy(ctx, c.cfg.Bucket)
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchBucketPolicy" {
		return false, fmt.Errorf("%w: leer política: %v", domain.ErrStorage, err)
	}
	if SamePolicy(current, want) {
		c.log.Debug().Str("bucket", c.cfg.Bucket).Msg("política pública ya aplicada")
		return false, nil
	}
	if err := mc.SetBucketPolicy(ctx, c.cfg.Bucket, want); err != nil {
		return false, fmt.Errorf("%w: aplicar política: %v", domain.ErrStorage, err)
	}
	c.log.Info().Str("bucket", c.cfg.Bucket).Msg("política de lectura pública aplicada")
	return true, nil
}

// Prepare arranque del servicio: el bucket es obligatorio (error si falla); la política pública
// solo se registra como WARN si no se puede aplicar.
func (c *Client) Prepare(ctx context.Context) error {
	if err := c.EnsureBucket(ctx); err != nil {
		return err
	}
	if _, err := c.ApplyPublicReadPolicy(ctx); err != nil {
		c.log.Warn().Err(err).Str("bucket", c.cfg.Bucket).Msg("no se pudo aplicar la política de lectura pública")
	}
	return nil
}

func (c *Client) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	mc, err := c.conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	_, err = mc.PutObject(ctx, c.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: subir %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	mc, err := c.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	obj, err := mc.GetObject(ctx, c.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(key, err)
	}
	return data, nil
}

func (c *Client) RemoveObject(ctx context.Context, key string) error {
	mc, err := c.conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := mc.RemoveObject(ctx, c.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: eliminar %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

func (c *Client) StatObject(ctx context.Context, key string) (*ports.ObjectInfo, error) {
	mc, err := c.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	info, err := mc.StatObject(ctx, c.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapError(key, err)
	}
	return &ports.ObjectInfo{Key: info.Key, Size: info.Size, ContentType: info.ContentType, LastModified: info.LastModified}, nil
}

func (c *Client) ListObjects(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	mc, err := c.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	var out []ports.ObjectInfo
	for obj := range mc.ListObjects(ctx, c.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: listar %q: %v", domain.ErrStorage, prefix, obj.Err)
		}
		out = append(out, ports.ObjectInfo{Key: obj.Key, Size: obj.Size, ContentType: obj.ContentType, LastModified: obj.LastModified})
	}
	return out, nil
}

// PublicURL scheme://public_endpoint/bucket/key.
func (c *Client) PublicURL(key string) string {
	return PublicURL(c.cfg, key)
}

// PublicURL construye la URL pública sin necesitar conexión.
func PublicURL(cfg config.StorageConfig, key string) string {
	endpoint := cfg.PublicEndpoint
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	return fmt.Sprintf("%s://%s/%s/%s", cfg.Scheme(), strings.TrimRight(endpoint, "/"), cfg.Bucket, strings.TrimLeft(key, "/"))
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	}
	return false
}

func mapError(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrStorage, key, domain.ErrObjectNotFound)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, key, err)
}
