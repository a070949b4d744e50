package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Nil and zero fields do not filter.
type ProductFilter struct {
	SearchString string
	CategoryID   *uint
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	LowStockOnly bool
}

// Validate rejects negative bounds and a maximum below the minimum.
func (f ProductFilter) Validate() error {
	verr := newValidationError()
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		verr.add(nil, "Minimum price cannot be negative.")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		verr.add(nil, "Maximum price cannot be negative.")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MaxPrice.LessThan(*f.MinPrice) {
		verr.add(nil, "Maximum price cannot be less than minimum price.")
	}
	if verr.empty() {
		return nil
	}
	return verr
}

type ProductService struct {
	db     *gorm.DB
	images ImageStore
	log    zerolog.Logger
	now    func() time.Time
}

// NewProductService builds the catalog service. images may be nil, in which
// case image uploads fail with ErrImagesDisabled.
func NewProductService(db *gorm.DB, logger zerolog.Logger, images ImageStore) *ProductService {
	return &ProductService{
		db:     db,
		images: images,
		log:    logger.With().Str("component", "product_service").Logger(),
		now:    time.Now,
	}
}

// likeEscaper makes LIKE wildcards in a search string match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search returns the products matching every supplied filter, each with its
// category. The filter is validated before the store is touched.
func (s *ProductService) Search(ctx context.Context, f ProductFilter) ([]ProductListing, error) {
	if err := f.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("rejected product search")
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if f.SearchString != "" {
		query = query.Where("name LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(f.SearchString)+"%")
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.LowStockOnly {
		query = query.Where("quantity_in_stock <= low_stock_threshold")
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	s.log.Debug().Int("count", len(products)).Str("search", f.SearchString).Msg("product search")
	return attachCategories(ctx, s.db, products)
}

func (s *ProductService) LowStock(ctx context.Context) ([]ProductListing, error) {
	return s.Search(ctx, ProductFilter{LowStockOnly: true})
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uint) (*ProductListing, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error().Err(err).Uint("product_id", id).Msg("failed to fetch product")
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}

	listings, err := attachCategories(ctx, s.db, []models.Product{product})
	if err != nil {
		return nil, err
	}
	return &listings[0], nil
}

func (s *ProductService) validate(ctx context.Context, product *models.Product) error {
	verr := newValidationError(models.Validate(product)...)
	if product.CategoryID > 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", product.CategoryID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check category %d: %w", product.CategoryID, err)
		}
		if count == 0 {
			verr.add(nil, fmt.Sprintf("Category with ID %d does not exist.", product.CategoryID))
		}
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func (s *ProductService) Create(ctx context.Context, actor models.Principal, product *models.Product) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := s.validate(ctx, product); err != nil {
		s.log.Warn().Err(err).Str("name", product.Name).Msg("invalid product")
		return err
	}

	product.Model = gorm.Model{}
	product.Version = 0
	product.ImageURL = ""
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		s.log.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.log.Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return nil
}

// Update saves an edited product. product.Version must be the version the
// editor loaded; a newer stored version yields ErrConcurrencyConflict.
func (s *ProductService) Update(ctx context.Context, actor models.Principal, product *models.Product) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	product.Name = strings.TrimSpace(product.Name)
	if err := s.validate(ctx, product); err != nil {
		s.log.Warn().Err(err).Uint("product_id", product.ID).Msg("invalid product")
		return err
	}

	db := s.db.WithContext(ctx)
	result := db.Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]any{
			"name":                product.Name,
			"description":         product.Description,
			"price":               product.Price,
			"quantity_in_stock":   product.QuantityInStock,
			"low_stock_threshold": product.LowStockThreshold,
			"category_id":         product.CategoryID,
			"version":             product.Version + 1,
		})
	if result.Error != nil {
		s.log.Error().Err(result.Error).Uint("product_id", product.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product %d: %w", product.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product %d: %w", product.ID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		s.log.Warn().Uint("product_id", product.ID).Uint("version", product.Version).Msg("concurrent product update detected")
		return ErrConcurrencyConflict
	}

	product.Version++
	s.log.Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("product updated")
	return nil
}

func (s *ProductService) Delete(ctx context.Context, actor models.Principal, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		s.log.Error().Err(result.Error).Uint("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		s.log.Warn().Uint("product_id", id).Msg("product not found for deletion")
		return ErrNotFound
	}

	s.log.Info().Uint("product_id", id).Msg("product deleted")
	return nil
}

// UploadImage stores an image for a product and records its URL.
func (s *ProductService) UploadImage(ctx context.Context, actor models.Principal, id uint, filename, contentType string, body io.Reader) (string, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	if s.images == nil {
		return "", ErrImagesDisabled
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return "", err
	}

	key := fmt.Sprintf("products/%d/%s-%s", id, s.now().UTC().Format("20060102150405"), path.Base(filename))
	url, err := s.images.Upload(ctx, key, contentType, body)
	if err != nil {
		s.log.Error().Err(err).Uint("product_id", id).Str("key", key).Msg("failed to upload product image")
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image_url", url).Error; err != nil {
		s.log.Error().Err(err).Uint("product_id", id).Str("url", url).Msg("image uploaded but not saved")
		return "", fmt.Errorf("failed to save image url: %w", err)
	}

	s.log.Info().Uint("product_id", id).Str("url", url).Msg("product image uploaded")
	return url, nil
}
