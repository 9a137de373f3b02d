// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Service handles product read paths. All listing/detail reads go through
// the injected cache store with write-triggered invalidation.
type Service struct {
	db     *gorm.DB
	cache  cache.Store
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, store cache.Store, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		cache:  store,
		config: cfg,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Search   string `form:"search"`
}

// Normalize clamps pagination to sane bounds.
func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// cacheKey maps a list request to its cache key. Plain page reads use the
// fixed-form key, anything carrying a filter hashes through a request
// descriptor. Both live under the "products:" prefix so one invalidation
// covers them.
func (r *ListRequest) cacheKey() string {
	if r.Search == "" {
		return cache.KeyProductList(r.Page, r.PageSize)
	}
	d := cache.RequestDescriptor{
		Path: "products",
		Params: map[string]string{
			"page":      strconv.Itoa(r.Page),
			"page_size": strconv.Itoa(r.PageSize),
			"search":    r.Search,
		},
	}
	return d.Key("products:q")
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination derives pagination info from a total row count.
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ListResponse represents a paginated product listing
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ListProducts retrieves available products with pagination, cached per
// page.
func (s *Service) ListProducts(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	req.Normalize()

	key := req.cacheKey()
	var cached ListResponse
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Preload("Brand").
		Where("available = ?", true)

	if req.Search != "" {
		search := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	resp := &ListResponse{
		Products:   products,
		Pagination: NewPagination(req.Page, req.PageSize, total),
	}
	_ = cache.SetJSON(ctx, s.cache, key, resp, cache.TTLHot)
	return resp, nil
}

// GetProductBySlug retrieves a single product by slug, cached.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	key := cache.KeyProductDetail(slug)
	var cached Product
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	}

	var product Product
	result := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Where("slug = ?", slug).
		First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	_ = cache.SetJSON(ctx, s.cache, key, &product, cache.TTLDetail)
	return &product, nil
}

// GetProduct retrieves a single product by ID without touching the cache.
// Cart and checkout always read live stock.
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	result := s.db.WithContext(ctx).Where("id = ?", id).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}

// ListTodaysDeals returns discounted available products, cached under the
// deals key.
func (s *Service) ListTodaysDeals(ctx context.Context) ([]Product, error) {
	key := cache.KeyDealsToday()
	var cached []Product
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	var products []Product
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("available = ? AND discount_price IS NOT NULL", true).
		Order("updated_at DESC").
		Limit(MaxPageSize).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve deals: %w", err)
	}

	_ = cache.SetJSON(ctx, s.cache, key, products, cache.TTLHot)
	return products, nil
}

// HomepageView is one rendered homepage section.
type HomepageView struct {
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Products []Product `json:"products"`
}

// ListHomepageSections returns the active sections with their products,
// cached as a single aggregate.
func (s *Service) ListHomepageSections(ctx context.Context) ([]HomepageView, error) {
	key := cache.KeyHomepageSections()
	var cached []HomepageView
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	var sections []HomepageSection
	if err := s.db.WithContext(ctx).
		Preload("Products", "available = ?", true).
		Where("is_active = ?", true).
		Order("position ASC").
		Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve homepage sections: %w", err)
	}

	views := make([]HomepageView, 0, len(sections))
	for _, section := range sections {
		views = append(views, HomepageView{
			Title:    section.Title,
			Slug:     section.Slug,
			Products: section.Products,
		})
	}

	_ = cache.SetJSON(ctx, s.cache, key, views, cache.TTLHot)
	return views, nil
}

// InvalidateProduct drops every cache entry a product write could have
// touched. Called after stock changes, rating updates, and seeds commit.
// Failures only degrade freshness, so they are logged and swallowed.
func (s *Service) InvalidateProduct(ctx context.Context, slug string) {
	if err := cache.Apply(ctx, s.cache, cache.ProductInvalidation(slug)); err != nil {
		logrus.WithError(err).WithField("slug", slug).Warn("product cache invalidation failed")
	}
}
