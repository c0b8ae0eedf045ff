package controllers

import (
	"net/http"

	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CategoryRequest represents the request body for creating or replacing a category
type CategoryRequest struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	DisplayOrder int    `json:"display_order"`
	Active       *bool  `json:"active"`
}

// ProductImageRequest links an already hosted image to a product
type ProductImageRequest struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// ProductOptionRequest declares a choice offered on a product
type ProductOptionRequest struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Required *bool    `json:"required"`
}

// ProductRequest represents the request body for creating or replacing a product
type ProductRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Slug            string                 `json:"slug"`
	Description     string                 `json:"description"`
	BasePrice       decimal.Decimal        `json:"base_price"`
	CategoryID      uint                   `json:"category_id" binding:"required"`
	SKU             string                 `json:"sku"`
	Active          *bool                  `json:"active"`
	Featured        bool                   `json:"featured"`
	MetaTitle       string                 `json:"meta_title"`
	MetaDescription string                 `json:"meta_description"`
	Images          []ProductImageRequest  `json:"images"`
	Options         []ProductOptionRequest `json:"options"`
}

// CatalogController serves categories and products
type CatalogController struct {
	catalog *services.CatalogService
	errorResponder
}

// NewCatalogController creates a CatalogController
func NewCatalogController(catalog *services.CatalogService, logger *zap.Logger, exposeDetails bool) *CatalogController {
	return &CatalogController{
		catalog:        catalog,
		errorResponder: newErrorResponder(logger, exposeDetails),
	}
}

// ListCategories handles GET /api/categories
func (cc *CatalogController) ListCategories(c *gin.Context) {
	categories, err := cc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, categories)
}

// GetCategory handles GET /api/categories/:slug
func (cc *CatalogController) GetCategory(c *gin.Context) {
	category, products, err := cc.catalog.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"category": category,
		"products": products,
	})
}

// CreateCategory handles POST /api/categories
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := cc.catalog.CreateCategory(c.Request.Context(), req.toInput())
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/categories/:id
func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := cc.catalog.UpdateCategory(c.Request.Context(), id, req.toInput())
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}
	if err := cc.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Category deleted"})
}

// ListProducts handles GET /api/products?category=&search=&page=&limit=
func (cc *CatalogController) ListProducts(c *gin.Context) {
	page, err := cc.catalog.ListProducts(c.Request.Context(), services.ProductQuery{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 50),
	})
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// FeaturedProducts handles GET /api/products/featured
func (cc *CatalogController) FeaturedProducts(c *gin.Context) {
	products, err := cc.catalog.FeaturedProducts(c.Request.Context(), queryInt(c, "limit", 8))
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id
func (cc *CatalogController) GetProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}

	product, err := cc.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := cc.catalog.CreateProduct(c.Request.Context(), req.toInput())
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id
func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := cc.catalog.UpdateProduct(c.Request.Context(), id, req.toInput())
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id
func (cc *CatalogController) DeleteProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}
	if err := cc.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

// UploadProductImage handles POST /api/products/:id/images (multipart field "image")
func (cc *CatalogController) UploadProductImage(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		cc.respondError(c, err)
		return
	}

	// a missing field is reported by the image validation as NO_FILE
	fileHeader, _ := c.FormFile("image")

	image, err := cc.catalog.AddProductImage(c.Request.Context(), id, fileHeader, c.PostForm("alt"))
	if err != nil {
		cc.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, image)
}

func (r CategoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		ImageURL:     r.ImageURL,
		DisplayOrder: r.DisplayOrder,
		Active:       r.Active,
	}
}

func (r ProductRequest) toInput() services.ProductInput {
	in := services.ProductInput{
		Name:            r.Name,
		Slug:            r.Slug,
		Description:     r.Description,
		BasePrice:       r.BasePrice,
		CategoryID:      r.CategoryID,
		SKU:             r.SKU,
		Active:          r.Active,
		Featured:        r.Featured,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
	}
	for _, img := range r.Images {
		in.Images = append(in.Images, services.ProductImageInput{URL: img.URL, Alt: img.Alt})
	}
	for _, opt := range r.Options {
		in.Options = append(in.Options, services.ProductOptionInput{
			Name:     opt.Name,
			Values:   opt.Values,
			Required: opt.Required,
		})
	}
	return in
}
