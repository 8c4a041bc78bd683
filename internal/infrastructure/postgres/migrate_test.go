package postgres

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_EmbebidasEnOrden(t *testing.T) {
	all, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "001_create_products", all[0].Version)
	assert.Equal(t, "002_make_unit_required", all[1].Version)
	assert.Contains(t, all[1].SQL, "unit = 'pièce' WHERE unit IS NULL OR unit = ''")
	assert.Contains(t, all[1].SQL, "SET NOT NULL")
}

func TestLoadMigrations_IgnoraOtrosArchivos(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_b.sql": {Data: []byte("SELECT 2;")},
		"m/002_a.sql": {Data: []byte("SELECT 1;")},
		"m/README.md": {Data: []byte("nada")},
		"m/sub/x.sql": {Data: []byte("SELECT 3;")},
	}
	all, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "002_a", all[0].Version)
	assert.Equal(t, "010_b", all[1].Version)
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: "001"}, {Version: "002"}, {Version: "003"}}
	got := Pending(all, map[string]bool{"001": true, "003": true})
	require.Len(t, got, 1)
	assert.Equal(t, "002", got[0].Version)

	assert.Empty(t, Pending(all, map[string]bool{"001": true, "002": true, "003": true}))
}

func TestMigracionInicial_Indices(t *testing.T) {
	all, err := LoadMigrations()
	require.NoError(t, err)
	for _, idx := range []string{"idx_products_name", "idx_products_category", "idx_products_is_available", "idx_products_created_at"} {
		assert.True(t, strings.Contains(all[0].SQL, idx), idx)
	}
}
