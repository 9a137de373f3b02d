// internal/cache/keys.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key builders. Every cached read derives its key from one of these pure
// functions so the mapping stays testable and invalidation sets stay in one
// place.

func KeyProductDetail(slug string) string {
	return "product:detail:" + slug
}

func KeyProductList(page, pageSize int) string {
	return fmt.Sprintf("products:list:p%d:s%d", page, pageSize)
}

func KeyCategoryDetail(slug string) string {
	return "category:detail:" + slug
}

func KeyCategoryProducts(slug string, page, pageSize int) string {
	return fmt.Sprintf("category:products:%s:p%d:s%d", slug, page, pageSize)
}

func KeyCategoriesAll() string {
	return "categories:all"
}

func KeyBrandProducts(slug string, page, pageSize int) string {
	return fmt.Sprintf("brands:products:%s:p%d:s%d", slug, page, pageSize)
}

func KeyBrandsAll() string {
	return "brands:all"
}

func KeyHomepageSections() string {
	return "homepage:sections"
}

func KeyDealsToday() string {
	return "deals:today"
}

func KeyBankList(country string) string {
	return "paystack:banks:" + strings.ToLower(country)
}

func KeyVerification(reference string) string {
	return "paystack:verify:" + reference
}

// RequestDescriptor is the normalized identity of a cacheable read: the
// route path, its query parameters, and whether the caller was
// authenticated. The derived key is invariant under parameter reordering.
type RequestDescriptor struct {
	Path          string
	Params        map[string]string
	Authenticated bool
}

// Key derives a deterministic cache key under the given prefix.
func (d RequestDescriptor) Key(prefix string) string {
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(d.Path)
	for _, name := range names {
		b.WriteByte('&')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(d.Params[name])
	}
	if d.Authenticated {
		b.WriteString("&auth=1")
	} else {
		b.WriteString("&auth=0")
	}

	sum := sha256.Sum256([]byte(b.String()))
	return prefix + ":" + hex.EncodeToString(sum[:8])
}

// Invalidation is the explicit set of deletions a write triggers.
type Invalidation struct {
	Keys     []string
	Prefixes []string
}

// ProductInvalidation covers everything a product write can have touched:
// its detail page, any listing page, homepage aggregates and the deals feed.
func ProductInvalidation(slug string) Invalidation {
	return Invalidation{
		Keys:     []string{KeyProductDetail(slug), KeyDealsToday()},
		Prefixes: []string{"products:", "homepage:"},
	}
}

// CategoryInvalidation covers a category write: its detail, its product
// listings, the full category index and homepage aggregates.
func CategoryInvalidation(slug string) Invalidation {
	return Invalidation{
		Keys:     []string{KeyCategoryDetail(slug), KeyCategoriesAll()},
		Prefixes: []string{"category:products:" + slug + ":", "homepage:"},
	}
}

// HomepageInvalidation covers writes to homepage-level collections.
func HomepageInvalidation() Invalidation {
	return Invalidation{
		Keys:     []string{KeyDealsToday()},
		Prefixes: []string{"homepage:"},
	}
}

// Apply executes an invalidation against a store. Best-effort: the first
// error is returned but the order write that triggered it must not care.
func Apply(ctx context.Context, s Store, inv Invalidation) error {
	if err := s.Delete(ctx, inv.Keys...); err != nil {
		return err
	}
	for _, prefix := range inv.Prefixes {
		if err := s.DeletePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
