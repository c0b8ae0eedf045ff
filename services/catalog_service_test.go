package services

import (
	"context"
	"testing"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/amaurycolochos7/shopp-kingice/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCatalogService(t *testing.T) (*CatalogService, *gorm.DB, *MockS3Service) {
	t.Helper()
	db := testutil.NewTestDB(t)
	storage := NewMockS3Service()
	return NewCatalogService(db, NewImageService(storage, "products"), zap.NewNop()), db, storage
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Anillos":                        "anillos",
		"Cadena Cubana de Oro Rosa":      "cadena-cubana-de-oro-rosa",
		"Diamante Corte Princess 2.0ct":  "diamante-corte-princess-2-0ct",
		"  Reloj Clásico -- Diamantado ": "reloj-clasico-diamantado",
		"Niño & Niña":                    "nino-nina",
		"!!!":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCategoryCRUD(t *testing.T) {
	svc, db, _ := newCatalogService(t)
	ctx := context.Background()

	anillos, err := svc.CreateCategory(ctx, CategoryInput{Name: "Anillos", DisplayOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "anillos", anillos.Slug)
	assert.True(t, anillos.Active)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Cadenas", DisplayOrder: 1})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Ocultos", Active: testutil.Ptr(false)})
	require.NoError(t, err)

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Anillos"})
		var ce *ConflictError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("invalid slug", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Aretes", Slug: "Aretes Finos"})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("list shows active in display order", func(t *testing.T) {
		categories, err := svc.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "cadenas", categories[0].Slug)
		assert.Equal(t, "anillos", categories[1].Slug)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := svc.UpdateCategory(ctx, anillos.ID, CategoryInput{
			Name:        "Anillos de Oro",
			Slug:        "anillos",
			Description: `<p>Oro <b>14k</b></p><script>x()</script>`,
		})
		require.NoError(t, err)
		assert.Equal(t, "Anillos de Oro", updated.Name)
		assert.Equal(t, "<p>Oro <b>14k</b></p>", updated.Description)

		_, err = svc.UpdateCategory(ctx, 999, CategoryInput{Name: "x"})
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("delete refuses categories with products", func(t *testing.T) {
		testutil.CreateProduct(t, db, anillos, "Anillo Cubano", "ANI-003", 22000)

		err := svc.DeleteCategory(ctx, anillos.ID)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("delete", func(t *testing.T) {
		empty, err := svc.CreateCategory(ctx, CategoryInput{Name: "Temporal"})
		require.NoError(t, err)
		require.NoError(t, svc.DeleteCategory(ctx, empty.ID))

		var nf *NotFoundError
		assert.ErrorAs(t, svc.DeleteCategory(ctx, empty.ID), &nf)
	})
}

func TestGetCategoryBySlug(t *testing.T) {
	svc, db, _ := newCatalogService(t)
	dijes := testutil.CreateCategory(t, db, "Dijes", "dijes")
	testutil.CreateProduct(t, db, dijes, "Dije Ojo de Tigre", "DIJ-001", 18000)
	hidden := testutil.CreateProduct(t, db, dijes, "Dije Retirado", "DIJ-009", 1000)
	require.NoError(t, db.Model(hidden).Update("active", false).Error)

	category, products, err := svc.GetCategoryBySlug(context.Background(), "dijes")
	require.NoError(t, err)
	assert.Equal(t, dijes.ID, category.ID)
	require.Len(t, products, 1)
	assert.Equal(t, "Dije Ojo de Tigre", products[0].Name)

	_, _, err = svc.GetCategoryBySlug(context.Background(), "relojes")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProductLifecycle(t *testing.T) {
	svc, db, storage := newCatalogService(t)
	ctx := context.Background()
	anillos := testutil.CreateCategory(t, db, "Anillos", "anillos")

	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:       "Anillo Solitario de Oro",
		BasePrice:  decimal.RequireFromString("35000.499"),
		CategoryID: anillos.ID,
		SKU:        "ANI-002",
		Featured:   true,
		Images: []ProductImageInput{
			{URL: "https://cdn.example/anillo-1.jpg"},
			{URL: "https://cdn.example/anillo-2.jpg", Alt: "Vista lateral"},
		},
		Options: []ProductOptionInput{
			{Name: "Talla", Values: []string{"6", "7", "8"}},
			{Name: "Grabado", Values: []string{"Sí", "No"}, Required: testutil.Ptr(false)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "anillo-solitario-de-oro", product.Slug)
	assert.Equal(t, "35000.50", product.BasePrice.StringFixed(2))

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "anillos", got.Category.Slug)
	require.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].IsPrimary)
	assert.Equal(t, "Anillo Solitario de Oro", got.Images[0].AltText)
	assert.Equal(t, "Vista lateral", got.Images[1].AltText)
	require.Len(t, got.Options, 2)
	assert.Equal(t, models.StringList{"6", "7", "8"}, got.Options[0].OptionValues)
	assert.True(t, got.Options[0].Required)
	assert.False(t, got.Options[1].Required)

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, ProductInput{Name: "Huérfano", CategoryID: 999})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)

		var count int64
		require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{
			Name:       "Anillo Solitario",
			Slug:       product.Slug,
			BasePrice:  decimal.NewFromInt(36000),
			CategoryID: anillos.ID,
			Active:     testutil.Ptr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "Anillo Solitario", updated.Name)
		assert.False(t, updated.Active)
		assert.Len(t, updated.Images, 2, "images are untouched by updates")
	})

	t.Run("upload image", func(t *testing.T) {
		image, err := svc.AddProductImage(ctx, product.ID, newUpload(t, "anillo-3.png", []byte("png")), "")
		require.NoError(t, err)
		assert.Equal(t, 2, image.DisplayOrder)
		assert.False(t, image.IsPrimary)
		require.NotNil(t, image.StorageKey)
		assert.Equal(t, 1, storage.Len())

		_, err = svc.AddProductImage(ctx, 999, newUpload(t, "x.png", []byte("png")), "")
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("delete keeps order history", func(t *testing.T) {
		customer := createCustomer(t, db)
		order := models.Order{
			OrderNumber: "KIG-260101-00001", CustomerID: customer.ID,
			Status: models.StatusSentToWhatsApp, Source: models.SourceWhatsApp, PaymentMethod: "oxxo",
		}
		require.NoError(t, db.Create(&order).Error)
		item := models.OrderItem{
			OrderID: order.ID, ProductID: &product.ID, ProductName: "Anillo Solitario", ProductSKU: "ANI-002",
			Quantity: 1, UnitPrice: decimal.NewFromInt(36000), Subtotal: decimal.NewFromInt(36000),
		}
		require.NoError(t, db.Create(&item).Error)

		require.NoError(t, svc.DeleteProduct(ctx, product.ID))

		var stored models.OrderItem
		require.NoError(t, db.Take(&stored, item.ID).Error)
		assert.Nil(t, stored.ProductID)
		assert.Equal(t, "Anillo Solitario", stored.ProductName)

		var images int64
		require.NoError(t, db.Model(&models.ProductImage{}).Count(&images).Error)
		assert.Zero(t, images)
		assert.Zero(t, storage.Len(), "uploaded files are removed from storage")

		var nf *NotFoundError
		assert.ErrorAs(t, svc.DeleteProduct(ctx, product.ID), &nf)
	})
}

func createCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := models.Customer{Name: "Ana", Email: "ana@example.com", Phone: "5512345678"}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func TestListProducts(t *testing.T) {
	svc, db, _ := newCatalogService(t)
	ctx := context.Background()
	anillos := testutil.CreateCategory(t, db, "Anillos", "anillos")
	relojes := testutil.CreateCategory(t, db, "Relojes", "relojes")
	testutil.CreateProduct(t, db, anillos, "Anillo Cubano", "ANI-003", 22000)
	testutil.CreateProduct(t, db, anillos, "Anillo Pavé", "ANI-001", 28000)
	featured := testutil.CreateProduct(t, db, relojes, "Reloj Full Iced", "REL-002", 120000)
	require.NoError(t, db.Model(featured).Update("featured", true).Error)

	t.Run("all", func(t *testing.T) {
		page, err := svc.ListProducts(ctx, ProductQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 50, page.Limit)
	})

	t.Run("by category", func(t *testing.T) {
		page, err := svc.ListProducts(ctx, ProductQuery{CategorySlug: "anillos"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		page, err := svc.ListProducts(ctx, ProductQuery{Search: "CUBANO"})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, "ANI-003", page.Products[0].SKU)
	})

	t.Run("featured", func(t *testing.T) {
		products, err := svc.FeaturedProducts(ctx, 0)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, featured.ID, products[0].ID)
	})
}
