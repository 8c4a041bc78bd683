package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
)

var _ ports.ObjectStorage = (*ObjectStorage)(nil)

type storedObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// ObjectStorage almacenamiento de objetos en memoria con la misma forma de URL pública que MinIO.
type ObjectStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]storedObject

	// FailPut fuerza un error en PutObject (tests).
	FailPut error
}

// NewObjectStorage baseURL es scheme://endpoint/bucket.
func NewObjectStorage(baseURL string) *ObjectStorage {
	return &ObjectStorage{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]storedObject)}
}

func (s *ObjectStorage) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	if s.FailPut != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, s.FailPut)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), data...)
	s.objects[key] = storedObject{data: cp, contentType: contentType, modified: time.Now().UTC()}
	return nil
}

func (s *ObjectStorage) GetObject(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *ObjectStorage) RemoveObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *ObjectStorage) StatObject(_ context.Context, key string) (*ports.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrObjectNotFound)
	}
	return &ports.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType, LastModified: obj.modified}, nil
}

func (s *ObjectStorage) ListObjects(_ context.Context, prefix string) ([]ports.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ports.ObjectInfo
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ports.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType, LastModified: obj.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *ObjectStorage) PublicURL(key string) string {
	return s.baseURL + "/" + key
}
