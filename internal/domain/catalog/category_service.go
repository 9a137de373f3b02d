// internal/domain/catalog/category_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CategoryService handles category and brand read paths
type CategoryService struct {
	db     *gorm.DB
	cache  cache.Store
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, store cache.Store, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		cache:  store,
		config: cfg,
	}
}

// CategoryWithCount is a category plus its available-product count, the
// aggregate the cache exists to front.
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// ListCategories returns all active categories with product counts, cached
// as one aggregate.
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	key := cache.KeyCategoriesAll()
	var cached []CategoryWithCount
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	var categories []Category
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	result := make([]CategoryWithCount, 0, len(categories))
	for _, category := range categories {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Product{}).
			Where("category_id = ? AND available = ?", category.ID, true).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count products for category %s: %w", category.Slug, err)
		}
		result = append(result, CategoryWithCount{Category: category, ProductCount: count})
	}

	_ = cache.SetJSON(ctx, s.cache, key, result, cache.TTLHot)
	return result, nil
}

// GetCategoryBySlug returns one category with its product count, cached.
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryWithCount, error) {
	key := cache.KeyCategoryDetail(slug)
	var cached CategoryWithCount
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	var category Category
	result := s.db.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ? AND available = ?", category.ID, true).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count category products: %w", err)
	}

	view := &CategoryWithCount{Category: category, ProductCount: count}
	_ = cache.SetJSON(ctx, s.cache, key, view, cache.TTLDetail)
	return view, nil
}

// ListCategoryProducts returns a category's products, paginated and cached
// per page.
func (s *CategoryService) ListCategoryProducts(ctx context.Context, slug string, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	key := cache.KeyCategoryProducts(slug, req.Page, req.PageSize)
	var cached ListResponse
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	var category Category
	result := s.db.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Brand").
		Where("category_id = ? AND available = ?", category.ID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count category products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve category products: %w", err)
	}

	resp := &ListResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.PageSize, total),
	}
	_ = cache.SetJSON(ctx, s.cache, key, resp, cache.TTLHot)
	return resp, nil
}

// ListBrands returns all active brands, cached.
func (s *CategoryService) ListBrands(ctx context.Context) ([]Brand, error) {
	key := cache.KeyBrandsAll()
	var cached []Brand
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	var brands []Brand
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve brands: %w", err)
	}

	_ = cache.SetJSON(ctx, s.cache, key, brands, cache.TTLDetail)
	return brands, nil
}

// ListBrandProducts returns a brand's products, paginated and cached per
// page.
func (s *CategoryService) ListBrandProducts(ctx context.Context, slug string, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	key := cache.KeyBrandProducts(slug, req.Page, req.PageSize)
	var cached ListResponse
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	var brand Brand
	result := s.db.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&brand)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to retrieve brand: %w", result.Error)
	}

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Where("brand_id = ? AND available = ?", brand.ID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count brand products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve brand products: %w", err)
	}

	resp := &ListResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.PageSize, total),
	}
	_ = cache.SetJSON(ctx, s.cache, key, resp, cache.TTLHot)
	return resp, nil
}

// InvalidateCategory drops the cache entries a category write touches.
func (s *CategoryService) InvalidateCategory(ctx context.Context, slug string) {
	if err := cache.Apply(ctx, s.cache, cache.CategoryInvalidation(slug)); err != nil {
		logrus.WithError(err).WithField("slug", slug).Warn("category cache invalidation failed")
	}
}
