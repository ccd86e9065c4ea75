package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
)

var admin = shared.Principal{ID: "u-admin", Role: shared.RoleAdmin}

func TestProductCRUD(t *testing.T) {
	svc := catalog.NewService(memory.NewStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, catalog.CreateProductRequest{
		Name:          catalog.LocalizedName{"en": "Desk", "de": "Schreibtisch"},
		CategoryID:    "furniture",
		Price:         199,
		StockQuantity: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	price := 179.0
	updated, err := svc.Update(ctx, admin, p.ID, catalog.UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 179.0, updated.Price)
	assert.Equal(t, 4, updated.StockQuantity)

	refs, err := svc.Refs(ctx, []string{p.ID, "missing"})
	require.NoError(t, err)
	require.Contains(t, refs, p.ID)
	assert.Equal(t, "furniture", refs[p.ID].CategoryID)

	list, page, err := svc.List(ctx, catalog.ListFilter{CategoryID: "furniture"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductValidation(t *testing.T) {
	svc := catalog.NewService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, shared.Principal{ID: "u-1", Role: shared.RoleCustomer}, catalog.CreateProductRequest{Name: catalog.LocalizedName{"en": "x"}, CategoryID: "c"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	for name, req := range map[string]catalog.CreateProductRequest{
		"no name":        {CategoryID: "c"},
		"bad tag":        {Name: catalog.LocalizedName{"not a tag!": "x"}, CategoryID: "c"},
		"no category":    {Name: catalog.LocalizedName{"en": "x"}},
		"negative stock": {Name: catalog.LocalizedName{"en": "x"}, CategoryID: "c", StockQuantity: -1},
	} {
		_, err := svc.Create(ctx, admin, req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, name)
	}

	_, err = svc.Get(ctx, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
