package inventory_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stockguard/pkg/errors"
	"github.com/agentstation/stockguard/internal/utils/ptr"
	"github.com/agentstation/stockguard/pkg/inventory"
)

func TestMemoryStoreProductLifecycle(t *testing.T) {
	store := inventory.NewMemoryStore()

	created, err := store.CreateProduct(inventory.ProductCreate{
		Name:     "  Widget ",
		Price:    9.5,
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, 5, created.LowStockThreshold, "default threshold")
	assert.False(t, created.IsLowStock())

	got, err := store.GetProduct(created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("GetProduct mismatch (-want +got):\n%s", diff)
	}

	updated, err := store.UpdateProduct(created.ID, inventory.ProductUpdate{Quantity: ptr.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, "Widget", updated.Name, "unset fields are kept")
	assert.Equal(t, 9.5, updated.Price)
	assert.True(t, updated.IsLowStock())

	deleted, err := store.DeleteProduct(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = store.GetProduct(created.ID)
	assert.True(t, errors.IsNotFound(err))

	_, err = store.DeleteProduct(created.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestMemoryStoreValidation(t *testing.T) {
	store := inventory.NewMemoryStore()

	tests := []struct {
		name string
		in   inventory.ProductCreate
	}{
		{"empty name", inventory.ProductCreate{Name: "  "}},
		{"negative price", inventory.ProductCreate{Name: "a", Price: -1}},
		{"negative quantity", inventory.ProductCreate{Name: "a", Quantity: -1}},
		{"negative threshold", inventory.ProductCreate{Name: "a", LowStockThreshold: ptr.Int(-1)}},
		{"unknown category", inventory.ProductCreate{Name: "a", CategoryID: ptr.Int64(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateProduct(tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}

	_, err := store.UpdateProduct(99, inventory.ProductUpdate{Quantity: ptr.Int(1)})
	assert.True(t, errors.IsNotFound(err))

	p, err := store.CreateProduct(inventory.ProductCreate{Name: "ok"})
	require.NoError(t, err)
	_, err = store.UpdateProduct(p.ID, inventory.ProductUpdate{Quantity: ptr.Int(-5)})
	assert.True(t, errors.IsValidationError(err))
}

func TestMemoryStoreCategories(t *testing.T) {
	store := inventory.NewMemoryStore()

	tools, err := store.CreateCategory(inventory.CategoryCreate{Name: "Tools"})
	require.NoError(t, err)

	_, err = store.CreateCategory(inventory.CategoryCreate{Name: "tools"})
	assert.True(t, errors.IsAlreadyExists(err))

	hammer, err := store.CreateProduct(inventory.ProductCreate{Name: "Hammer", CategoryID: &tools.ID})
	require.NoError(t, err)
	require.NotNil(t, hammer.Category)
	assert.Equal(t, "Tools", hammer.Category.Name)

	renamed, err := store.UpdateCategory(tools.ID, inventory.CategoryUpdate{Name: ptr.String("Hardware")})
	require.NoError(t, err)
	assert.Equal(t, "Hardware", renamed.Name)

	hammer, err = store.GetProduct(hammer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", hammer.Category.Name, "category is hydrated on read")

	_, err = store.DeleteCategory(tools.ID)
	require.NoError(t, err)

	hammer, err = store.GetProduct(hammer.ID)
	require.NoError(t, err)
	assert.Nil(t, hammer.CategoryID, "products are detached from deleted categories")
	assert.Nil(t, hammer.Category)

	cats, err := store.ListCategories()
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestMemoryStoreListFilter(t *testing.T) {
	store := inventory.NewMemoryStore()
	cat, err := store.CreateCategory(inventory.CategoryCreate{Name: "Kitchen"})
	require.NoError(t, err)

	for i := 1; i <= 6; i++ {
		in := inventory.ProductCreate{Name: fmt.Sprintf("Item %d", i), Quantity: i}
		if i%2 == 0 {
			in.CategoryID = &cat.ID
		}
		_, err := store.CreateProduct(in)
		require.NoError(t, err)
	}
	_, err = store.CreateProduct(inventory.ProductCreate{Name: "STRASSE Sign", Quantity: 50})
	require.NoError(t, err)

	names := func(ps []inventory.Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	all, err := store.ListProducts(inventory.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 7)

	page, err := store.ListProducts(inventory.Filter{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Item 3", "Item 4"}, names(page))

	inCat, err := store.ListProducts(inventory.Filter{CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Item 2", "Item 4", "Item 6"}, names(inCat))

	low, err := store.ListProducts(inventory.Filter{LowStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Item 1", "Item 2", "Item 3", "Item 4"}, names(low))

	folded, err := store.ListProducts(inventory.Filter{NameContains: "strasse sIGN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"STRASSE Sign"}, names(folded))

	past, err := store.ListProducts(inventory.Filter{Skip: 100})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryStoreConcurrentCreates(t *testing.T) {
	store := inventory.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.CreateProduct(inventory.ProductCreate{Name: fmt.Sprintf("p%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := store.ListProducts(inventory.Filter{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, all, 50)

	seen := make(map[int64]bool)
	for _, p := range all {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := inventory.NewMemoryStore()

	desc := "original"
	created, err := store.CreateProduct(inventory.ProductCreate{Name: "Widget", Description: &desc})
	require.NoError(t, err)

	desc = "changed by caller"
	*created.Description = "changed through result"

	got, err := store.GetProduct(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", *got.Description)
}
