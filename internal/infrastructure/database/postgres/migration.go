// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
	"github.com/estyshop/ecommerce-backend/internal/domain/user"
	"github.com/estyshop/ecommerce-backend/internal/domain/wishlist"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain - Base tables
		&user.User{},
		&user.Address{},

		// Catalog domain
		&catalog.Category{},
		&catalog.Brand{},
		&catalog.Product{},
		&catalog.HomepageSection{},
		&catalog.Review{},
		&catalog.StockMovement{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},

		// Wishlist domain
		&wishlist.Item{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes beyond what the model tags
// declare. Failures are logged and skipped so a partially indexed database
// still boots.
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product listing reads
		"CREATE INDEX IF NOT EXISTS idx_products_category_available ON products(category_id, available)",
		"CREATE INDEX IF NOT EXISTS idx_products_brand_available ON products(brand_id, available)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Cart lookups by owner and by abandonment age
		"CREATE INDEX IF NOT EXISTS idx_carts_updated_at ON carts(updated_at)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items(cart_id, product_id)",

		// Order history and payment lookups
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		// Review listings
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",

		// Stock ledger reads
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at DESC)",

		// Address book defaults
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts development data: categories, a brand, purchasable
// products with an opening stock ledger, homepage sections, and a demo user.
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedBrands(); err != nil {
		return fmt.Errorf("failed to seed brands: %w", err)
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedHomepageSections(); err != nil {
		return fmt.Errorf("failed to seed homepage sections: %w", err)
	}

	if err := m.seedDemoUser(); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedCategories() error {
	categories := []catalog.Category{
		{
			Name:        "Clothing",
			Slug:        "clothing",
			Description: "Dresses, shirts, and everyday wear",
			SortOrder:   1,
			IsActive:    true,
		},
		{
			Name:        "Footwear",
			Slug:        "footwear",
			Description: "Sandals, slides, and shoes",
			SortOrder:   2,
			IsActive:    true,
		},
		{
			Name:        "Bags",
			Slug:        "bags",
			Description: "Handbags, totes, and backpacks",
			SortOrder:   3,
			IsActive:    true,
		},
		{
			Name:        "Accessories",
			Slug:        "accessories",
			Description: "Jewellery, scarves, and headwraps",
			SortOrder:   4,
			IsActive:    true,
		},
	}

	for _, category := range categories {
		var existing catalog.Category
		if err := m.db.Where("slug = ?", category.Slug).First(&existing).Error; err == nil {
			continue
		}
		if err := m.db.Create(&category).Error; err != nil {
			return err
		}
		log.Printf("✅ Created category: %s", category.Name)
	}

	return nil
}

func (m *Migration) seedBrands() error {
	brands := []catalog.Brand{
		{
			Name:        "Esty Originals",
			Slug:        "esty-originals",
			Description: "Made in-house, in small batches",
			IsActive:    true,
		},
		{
			Name:        "Adire House",
			Slug:        "adire-house",
			Description: "Hand-dyed adire fabrics from Abeokuta",
			IsActive:    true,
		},
	}

	for _, brand := range brands {
		var existing catalog.Brand
		if err := m.db.Where("slug = ?", brand.Slug).First(&existing).Error; err == nil {
			continue
		}
		if err := m.db.Create(&brand).Error; err != nil {
			return err
		}
		log.Printf("✅ Created brand: %s", brand.Name)
	}

	return nil
}

func (m *Migration) seedProducts() error {
	var clothing, footwear, bags catalog.Category
	if err := m.db.Where("slug = ?", "clothing").First(&clothing).Error; err != nil {
		return err
	}
	if err := m.db.Where("slug = ?", "footwear").First(&footwear).Error; err != nil {
		return err
	}
	if err := m.db.Where("slug = ?", "bags").First(&bags).Error; err != nil {
		return err
	}

	var brand catalog.Brand
	if err := m.db.Where("slug = ?", "esty-originals").First(&brand).Error; err != nil {
		return err
	}

	discounted := int64(1250000)
	products := []catalog.Product{
		{
			SKU:         "EST-ADIRE-DRESS",
			Name:        "Adire Maxi Dress",
			Slug:        "adire-maxi-dress",
			Description: "Hand-dyed adire maxi dress with side pockets.",
			Price:       1850000, // ₦18,500.00
			InStock:     20,
			Available:   true,
			CategoryID:  clothing.ID,
			BrandID:     &brand.ID,
		},
		{
			SKU:           "EST-ANKARA-SHIRT",
			Name:          "Ankara Camp Shirt",
			Slug:          "ankara-camp-shirt",
			Description:   "Relaxed-fit camp collar shirt in wax print cotton.",
			Price:         1500000, // ₦15,000.00
			DiscountPrice: &discounted,
			InStock:       35,
			Available:     true,
			CategoryID:    clothing.ID,
			BrandID:       &brand.ID,
		},
		{
			SKU:         "EST-LEATHER-SLIDE",
			Name:        "Tan Leather Slides",
			Slug:        "tan-leather-slides",
			Description: "Full-grain leather slides, stitched in Aba.",
			Price:       950000, // ₦9,500.00
			InStock:     50,
			Available:   true,
			CategoryID:  footwear.ID,
		},
		{
			SKU:         "EST-RAFFIA-TOTE",
			Name:        "Raffia Market Tote",
			Slug:        "raffia-market-tote",
			Description: "Woven raffia tote with leather handles.",
			Price:       1200000, // ₦12,000.00
			InStock:     15,
			Available:   true,
			CategoryID:  bags.ID,
		},
	}

	for _, p := range products {
		var existing catalog.Product
		if err := m.db.Where("sku = ?", p.SKU).First(&existing).Error; err == nil {
			continue
		}
		if err := m.db.Create(&p).Error; err != nil {
			log.Printf("⚠️ Failed to create product %s: %v", p.SKU, err)
			continue
		}
		// Open the stock ledger so seeded stock is accounted for like any
		// later restock.
		if err := catalog.RecordMovement(m.db, p.ID, catalog.MovementRestock, p.InStock, ""); err != nil {
			log.Printf("⚠️ Failed to record opening stock for %s: %v", p.SKU, err)
		}
		log.Printf("✅ Created product: %s", p.Name)
	}

	return nil
}

func (m *Migration) seedHomepageSections() error {
	var count int64
	m.db.Model(&catalog.HomepageSection{}).Count(&count)
	if count > 0 {
		return nil
	}

	var products []catalog.Product
	if err := m.db.Where("sku LIKE ?", "EST-%").Find(&products).Error; err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	newIn := catalog.HomepageSection{Title: "New In", Slug: "new-in", Position: 1, IsActive: true}
	if err := m.db.Create(&newIn).Error; err != nil {
		return err
	}
	if err := m.db.Model(&newIn).Association("Products").Append(&products); err != nil {
		return err
	}

	half := products[:(len(products)+1)/2]
	bestSellers := catalog.HomepageSection{Title: "Best Sellers", Slug: "best-sellers", Position: 2, IsActive: true}
	if err := m.db.Create(&bestSellers).Error; err != nil {
		return err
	}
	if err := m.db.Model(&bestSellers).Association("Products").Append(&half); err != nil {
		return err
	}

	log.Println("✅ Created homepage sections")
	return nil
}

func (m *Migration) seedDemoUser() error {
	var existing user.User
	if err := m.db.Where("email = ?", "demo@estyshop.test").First(&existing).Error; err == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	demo := user.User{
		Email:     "demo@estyshop.test",
		Password:  string(hashedPassword),
		FirstName: "Demo",
		LastName:  "Shopper",
		Phone:     "+2348012345678",
		IsActive:  true,
	}
	if err := m.db.Create(&demo).Error; err != nil {
		return err
	}

	log.Println("✅ Created demo user: demo@estyshop.test (password: demo1234)")
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"wishlist_items",
		"order_items",
		"orders",
		"cart_items",
		"carts",
		"stock_movements",
		"reviews",
		"homepage_section_products",
		"homepage_sections",
		"products",
		"brands",
		"categories",
		"addresses",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo logs row counts for every public table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
