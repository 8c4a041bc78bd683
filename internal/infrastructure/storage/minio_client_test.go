package storage_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/infrastructure/storage"
	"github.com/makiti/market-api/pkg/config"
)

func TestPublicReadPolicy(t *testing.T) {
	var doc struct {
		Version   string
		Statement []struct {
			Effect    string
			Principal map[string][]string
			Action    []string
			Resource  []string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(storage.PublicReadPolicy("products")), &doc))

	assert.Equal(t, "2012-10-17", doc.Version)
	require.Len(t, doc.Statement, 1)
	st := doc.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, []string{"*"}, st.Principal["AWS"])
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::products/*"}, st.Resource)
}

func TestSamePolicy(t *testing.T) {
	want := storage.PublicReadPolicy("products")
	reformatted := `{
  "Statement": [{"Resource": ["arn:aws:s3:::products/*"], "Action": ["s3:GetObject"],
    "Principal": {"AWS": ["*"]}, "Effect": "Allow"}],
  "Version": "2012-10-17"
}`
	assert.True(t, storage.SamePolicy(want, reformatted), "mismo documento con otro formato")
	assert.False(t, storage.SamePolicy(want, storage.PublicReadPolicy("otro")))
	assert.False(t, storage.SamePolicy(want, ""), "sin política actual")
	assert.False(t, storage.SamePolicy(want, "{no json"))
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.StorageConfig
		key  string
		want string
	}{
		{
			name: "http por defecto",
			cfg:  config.StorageConfig{Endpoint: "localhost:9000", Bucket: "products"},
			key:  "abc.jpg",
			want: "http://localhost:9000/products/abc.jpg",
		},
		{
			name: "endpoint público y TLS",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", PublicEndpoint: "cdn.makiti.app", Bucket: "products", UseSSL: true},
			key:  "/abc.jpg",
			want: "https://cdn.makiti.app/products/abc.jpg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, storage.PublicURL(tc.cfg, tc.key))
			assert.Equal(t, tc.want, storage.NewClient(tc.cfg, nil).PublicURL(tc.key))
		})
	}
}
