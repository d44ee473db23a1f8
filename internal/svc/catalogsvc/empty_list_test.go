package catalogsvc_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/storefront/internal/svc/catalogsvc"
)

// fixedAPI answers every GET with body.
type fixedAPI struct {
	body string
}

func (f fixedAPI) Get(_ context.Context, _ string, out any) error {
	return json.Unmarshal([]byte(f.body), out)
}

func (fixedAPI) Post(context.Context, string, any, any) error  { return nil }
func (fixedAPI) Put(context.Context, string, any, any) error   { return nil }
func (fixedAPI) Patch(context.Context, string, any, any) error { return nil }
func (fixedAPI) Delete(context.Context, string, any) error     { return nil }

const nullProducts = `{"success":true,"data":{"products":null,"pagination":{"total":0,"page":1,"limit":20,"totalPages":0}}}`

func TestProductService_ListProducts_NullList(t *testing.T) {
	t.Parallel()

	page, err := NewProductService(fixedAPI{body: nullProducts}).ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.NotNil(t, page.Products)
	assert.Equal(t, 0, page.Pagination.Total)
}

func TestProductService_LowStock_NullList(t *testing.T) {
	t.Parallel()

	products, err := NewProductService(fixedAPI{body: nullProducts}).LowStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}
