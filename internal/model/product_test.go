package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SKU uniqueness is enforced per company so two tenants can reuse a code.
func TestProductSKUUniquePerCompany(t *testing.T) {
	typ := reflect.TypeOf(Product{})

	companyField, ok := typ.FieldByName("CompanyID")
	require.True(t, ok)
	skuField, ok := typ.FieldByName("SKU")
	require.True(t, ok)

	const compositeIndex = "index:idx_products_company_sku,unique"
	assert.Contains(t, companyField.Tag.Get("gorm"), compositeIndex)
	assert.Contains(t, skuField.Tag.Get("gorm"), compositeIndex)
	assert.NotContains(t, skuField.Tag.Get("gorm"), "uniqueIndex")
}
