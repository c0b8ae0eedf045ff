package services

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"

	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CategoryInput creates or replaces a category
type CategoryInput struct {
	Name         string
	Slug         string
	Description  string
	ImageURL     string
	DisplayOrder int
	Active       *bool
}

// ProductImageInput links an existing image URL to a new product
type ProductImageInput struct {
	URL string
	Alt string
}

// ProductOptionInput declares a choice offered on a product
type ProductOptionInput struct {
	Name     string
	Values   []string
	Required *bool
}

// ProductInput creates or replaces a product
type ProductInput struct {
	Name            string
	Slug            string
	Description     string
	BasePrice       decimal.Decimal
	CategoryID      uint
	SKU             string
	Active          *bool
	Featured        bool
	MetaTitle       string
	MetaDescription string
	Images          []ProductImageInput
	Options         []ProductOptionInput
}

// ProductQuery filters the public product listing
type ProductQuery struct {
	CategorySlug string
	Search       string
	Page         int
	Limit        int
}

// ProductPage is one page of products plus paging metadata
type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int64            `json:"total"`
	Pages    int              `json:"pages"`
}

// CatalogService manages categories and products
type CatalogService struct {
	db     *gorm.DB
	images ImageService
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService. images may be nil when uploads are disabled.
func NewCatalogService(db *gorm.DB, images ImageService, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, images: images, logger: logger}
}

// ListCategories returns active categories in display order
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("display_order ASC").Order("id ASC").Find(&categories).Error
	if err != nil {
		return nil, persistenceErr("list categories", err)
	}
	return categories, nil
}

// GetCategoryBySlug returns an active category and its active products
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, []models.Product, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, &NotFoundError{Resource: "category", Key: slug}
	}
	if err != nil {
		return nil, nil, persistenceErr("get category", err)
	}

	products := []models.Product{}
	err = s.db.WithContext(ctx).
		Preload("Images", orderByDisplay).
		Where("category_id = ? AND active = ?", category.ID, true).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, nil, persistenceErr("list category products", err)
	}
	return &category, products, nil
}

// CreateCategory adds a category
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := models.Category{}
	if err := applyCategoryInput(&category, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, writeErr("create category", "a category with this slug already exists", err)
	}
	return &category, nil
}

// UpdateCategory replaces every editable field of a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	var category models.Category
	if err := s.findByID(ctx, &category, "category", id); err != nil {
		return nil, err
	}
	if err := applyCategoryInput(&category, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, writeErr("update category", "a category with this slug already exists", err)
	}
	return &category, nil
}

// DeleteCategory removes a category that no product references
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return persistenceErr("count category products", err)
	}
	if count > 0 {
		return validationErr("", "cannot delete: the category has %d associated products", count)
	}

	result := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return persistenceErr("delete category", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "category", Key: strconv.FormatUint(uint64(id), 10)}
	}
	return nil
}

// ListProducts returns active products, newest first
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	scoped := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.Product{}).Where("products.active = ?", true)
		if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
			db = db.Where("products.category_id IN (?)",
				s.db.WithContext(ctx).Model(&models.Category{}).Select("id").Where("slug = ?", slug))
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?)", like, like)
		}
		return db
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, persistenceErr("count products", err)
	}

	products := []models.Product{}
	err := scoped().
		Preload("Category").
		Preload("Images", orderByDisplay).
		Preload("Options", orderByDisplay).
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&products).Error
	if err != nil {
		return nil, persistenceErr("list products", err)
	}

	return &ProductPage{
		Products: products,
		Page:     page,
		Limit:    limit,
		Total:    total,
		Pages:    int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// FeaturedProducts returns up to limit active featured products
func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 {
		limit = 8
	}
	products := []models.Product{}
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", orderByDisplay).
		Where("active = ? AND featured = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, persistenceErr("featured products", err)
	}
	return products, nil
}

// GetProduct returns a product with its category, images and options
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", orderByDisplay).
		Preload("Options", orderByDisplay).
		Where("id = ?", id).
		Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "product", Key: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return nil, persistenceErr("get product", err)
	}
	return &product, nil
}

// CreateProduct stores a product with its images and options in one transaction
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := models.Product{}
	if err := applyProductInput(&product, in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureCategory(tx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return writeErr("create product", "a product with this slug already exists", err)
		}

		for i, img := range in.Images {
			if strings.TrimSpace(img.URL) == "" {
				return validationErr("images["+strconv.Itoa(i)+"].url", "url is required")
			}
			alt := sanitizeText(img.Alt)
			if alt == "" {
				alt = product.Name
			}
			product.Images = append(product.Images, models.ProductImage{
				ProductID:    product.ID,
				ImageURL:     strings.TrimSpace(img.URL),
				AltText:      alt,
				DisplayOrder: i,
				IsPrimary:    i == 0,
			})
		}
		if len(product.Images) > 0 {
			if err := tx.Create(&product.Images).Error; err != nil {
				return persistenceErr("create product images", err)
			}
		}

		for i, opt := range in.Options {
			name := sanitizeText(opt.Name)
			if name == "" {
				return validationErr("options["+strconv.Itoa(i)+"].name", "name is required")
			}
			product.Options = append(product.Options, models.ProductOption{
				ProductID:    product.ID,
				OptionName:   name,
				OptionValues: models.StringList(opt.Values),
				DisplayOrder: i,
				Required:     opt.Required == nil || *opt.Required,
			})
		}
		if len(product.Options) > 0 {
			if err := tx.Create(&product.Options).Error; err != nil {
				return persistenceErr("create product options", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, persistenceErr("create product", err)
	}

	s.logger.Info("Product created", zap.Uint("product_id", product.ID), zap.String("slug", product.Slug))
	return &product, nil
}

// UpdateProduct replaces the editable fields of a product. Images and options
// are managed separately.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	var product models.Product
	if err := s.findByID(ctx, &product, "product", id); err != nil {
		return nil, err
	}
	if err := applyProductInput(&product, in); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(s.db.WithContext(ctx), in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(&product).Error; err != nil {
		return nil, writeErr("update product", "a product with this slug already exists", err)
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product together with its images and options.
// Order items keep their copied name and SKU.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	var images []models.ProductImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Find(&images).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductOption{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Product{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &NotFoundError{Resource: "product", Key: strconv.FormatUint(uint64(id), 10)}
		}
		return nil
	})
	if err != nil {
		return persistenceErr("delete product", err)
	}

	for _, img := range images {
		if img.StorageKey == nil || s.images == nil {
			continue
		}
		if err := s.images.DeleteImage(ctx, *img.StorageKey); err != nil {
			s.logger.Warn("Failed to delete product image from storage", zap.String("key", *img.StorageKey), zap.Error(err))
		}
	}
	return nil
}

// AddProductImage stores an uploaded image and appends it to the product gallery
func (s *CatalogService) AddProductImage(ctx context.Context, productID uint, upload *multipart.FileHeader, alt string) (*models.ProductImage, error) {
	if s.images == nil {
		return nil, validationErr("image", "image uploads are not configured")
	}

	var product models.Product
	if err := s.findByID(ctx, &product, "product", productID); err != nil {
		return nil, err
	}

	key, url, err := s.images.UploadImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	image := models.ProductImage{
		ProductID:  productID,
		ImageURL:   url,
		StorageKey: &key,
		AltText:    sanitizeText(alt),
	}
	if image.AltText == "" {
		image.AltText = product.Name
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		image.DisplayOrder = int(count)
		image.IsPrimary = count == 0
		return tx.Create(&image).Error
	})
	if err != nil {
		if delErr := s.images.DeleteImage(ctx, key); delErr != nil {
			s.logger.Warn("Failed to clean up orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, persistenceErr("create product image", err)
	}
	return &image, nil
}

func (s *CatalogService) findByID(ctx context.Context, dest interface{}, resource string, id uint) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, Key: strconv.FormatUint(uint64(id), 10)}
	}
	if err != nil {
		return persistenceErr("get "+resource, err)
	}
	return nil
}

func (s *CatalogService) ensureCategory(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return persistenceErr("check category", err)
	}
	if count == 0 {
		return validationErr("category_id", "category %d does not exist", id)
	}
	return nil
}

func applyCategoryInput(c *models.Category, in CategoryInput) error {
	name := sanitizeText(in.Name)
	if name == "" {
		return validationErr("name", "name is required")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return validationErr("slug", "slug may only contain lowercase letters, digits and dashes")
	}

	c.Name = name
	c.Slug = slug
	c.Description = sanitizeRichText(in.Description)
	c.ImageURL = strings.TrimSpace(in.ImageURL)
	c.DisplayOrder = in.DisplayOrder
	c.Active = in.Active == nil || *in.Active
	return nil
}

func applyProductInput(p *models.Product, in ProductInput) error {
	name := sanitizeText(in.Name)
	if name == "" {
		return validationErr("name", "name is required")
	}
	if in.CategoryID == 0 {
		return validationErr("category_id", "category_id is required")
	}
	if in.BasePrice.IsNegative() {
		return validationErr("base_price", "base_price must not be negative")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return validationErr("slug", "slug may only contain lowercase letters, digits and dashes")
	}

	p.Name = name
	p.Slug = slug
	p.Description = sanitizeRichText(in.Description)
	p.BasePrice = in.BasePrice.Round(2)
	p.CategoryID = in.CategoryID
	p.SKU = strings.TrimSpace(in.SKU)
	p.Active = in.Active == nil || *in.Active
	p.Featured = in.Featured
	p.MetaTitle = sanitizeText(in.MetaTitle)
	p.MetaDescription = sanitizeText(in.MetaDescription)
	return nil
}

// Slugify turns a display name into a URL slug, folding Spanish accents
func Slugify(name string) string {
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	)
	lowered := replacer.Replace(strings.ToLower(strings.TrimSpace(name)))

	var b strings.Builder
	dash := false
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func orderByDisplay(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

func writeErr(op, conflictMessage string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Message: conflictMessage}
	}
	return persistenceErr(op, err)
}
