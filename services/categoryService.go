package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CategoryService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCategoryService(db *gorm.DB, logger zerolog.Logger) *CategoryService {
	return &CategoryService{db: db, log: logger.With().Str("component", "category_service").Logger()}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

func (s *CategoryService) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch category %d: %w", id, err)
	}
	return &category, nil
}

// Products returns the products of a category.
func (s *CategoryService) Products(ctx context.Context, id uint) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("category_id = ?", id).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products of category %d: %w", id, err)
	}
	return products, nil
}

func (s *CategoryService) Create(ctx context.Context, actor models.Principal, category *models.Category) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	category.Name = strings.TrimSpace(category.Name)
	if msgs := models.Validate(category); msgs != nil {
		return newValidationError(msgs...)
	}

	category.Model = gorm.Model{}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		s.log.Error().Err(err).Str("name", category.Name).Msg("failed to create category")
		return fmt.Errorf("failed to create category: %w", err)
	}

	s.log.Info().Uint("category_id", category.ID).Str("name", category.Name).Msg("category created")
	return nil
}

func (s *CategoryService) Update(ctx context.Context, actor models.Principal, category *models.Category) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	category.Name = strings.TrimSpace(category.Name)
	if msgs := models.Validate(category); msgs != nil {
		return newValidationError(msgs...)
	}

	existing, err := s.GetByID(ctx, category.ID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(existing).Updates(map[string]any{
		"name":        category.Name,
		"description": category.Description,
	}).Error; err != nil {
		s.log.Error().Err(err).Uint("category_id", category.ID).Msg("failed to update category")
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}

	s.log.Info().Uint("category_id", category.ID).Msg("category updated")
	return nil
}

// Delete removes a category that no product references.
func (s *CategoryService) Delete(ctx context.Context, actor models.Principal, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count products of category %d: %w", id, err)
		}
		if count > 0 {
			s.log.Warn().Uint("category_id", id).Int64("products", count).Msg("refusing to delete category in use")
			return ErrCategoryInUse
		}

		result := tx.Delete(&models.Category{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete category %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		s.log.Info().Uint("category_id", id).Msg("category deleted")
		return nil
	})
}
