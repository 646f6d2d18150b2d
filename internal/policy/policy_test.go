package policy

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownTenant(t *testing.T) {
	p := DefaultTable().Lookup("  E420 ")
	assert.Equal(t, "https://everythingfor420.com/pages/shipping-returns", p.URL)
	assert.Contains(t, p.Extract, "UNUSED")
}

func TestLookup_UnknownTenantFallsBackToDefault(t *testing.T) {
	table := DefaultTable()
	want := table.Lookup(DefaultKey)

	assert.Equal(t, want, table.Lookup("unknown_tenant_xyz"))
	assert.Equal(t, want, table.Lookup(""))
	assert.Empty(t, want.URL)
	assert.Contains(t, want.Text, "Returns & Exchanges Policy")
}

func TestLookup_ZeroTableUsesBuiltins(t *testing.T) {
	var table Table
	assert.Equal(t, DefaultTable().Lookup("tenant2"), table.Lookup("tenant2"))
}

func TestWith_OverridesWithoutMutatingBase(t *testing.T) {
	base := DefaultTable()
	custom := base.With(map[string]Policy{
		"NewShop": {Text: "Returns accepted within 7 days.", URL: "https://newshop.example/returns"},
		"e420":    {Text: "replaced"},
	})

	assert.Equal(t, "Returns accepted within 7 days.", custom.Lookup("newshop").Text)
	assert.Equal(t, "replaced", custom.Lookup("e420").Text)
	assert.NotEqual(t, "replaced", base.Lookup("e420").Text)
	assert.Equal(t, base.Lookup("unknown").Text, custom.Lookup("unknown").Text)

	tenants := custom.Tenants()
	sort.Strings(tenants)
	assert.Equal(t, []string{"default", "e420", "edhardyoriginals", "newshop", "tenant2"}, tenants)
}

func TestImagePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e420.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e420.webp"), []byte("webp"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tenant2.png"), 0o755))

	assert.Equal(t, filepath.Join(dir, "e420.jpg"), ImagePath(dir, " E420"))
	assert.Empty(t, ImagePath(dir, "tenant2"))
	assert.Empty(t, ImagePath(dir, "unknown"))
	assert.Empty(t, ImagePath(dir, ""))
}
