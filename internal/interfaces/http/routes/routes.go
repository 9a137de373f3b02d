// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
)

// SetupRoutes mounts every API route on the group. Handlers share one
// cache store so invalidations from one service are seen by all.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	store := cache.NewRedisStore(redisClient)

	setupAuthRoutes(rg, db, cfg)
	setupCatalogRoutes(rg, db, store, cfg)
	setupCartRoutes(rg, db, cfg)
	setupOrderRoutes(rg, db, store, cfg)
	setupAccountRoutes(rg, db, cfg)
}

// setupAuthRoutes sets up authentication related routes
func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

// setupCatalogRoutes sets up product, category, brand and review routes
func setupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, store cache.Store, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, store, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, store, cfg)
	reviewHandler := handlers.NewReviewHandler(db, store)

	rg.GET("/home", productHandler.GetHomepage)
	rg.GET("/deals", productHandler.ListTodaysDeals)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:slug", productHandler.GetProduct)
		products.GET("/:slug/reviews", reviewHandler.ListReviews)

		// Review writes require an account
		protected := products.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/:slug/reviews", reviewHandler.CreateReview)
			protected.DELETE("/:slug/reviews", reviewHandler.DeleteReview)
		}
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.ListCategories)
		categories.GET("/:slug", categoryHandler.GetCategory)
		categories.GET("/:slug/products", categoryHandler.ListCategoryProducts)
	}

	brands := rg.Group("/brands")
	{
		brands.GET("", categoryHandler.ListBrands)
		brands.GET("/:slug/products", categoryHandler.ListBrandProducts)
	}
}

// setupCartRoutes sets up cart and checkout routes. Both run with
// optional auth so guest sessions and accounts share one code path.
func setupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.Clear)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
	}

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		checkout.POST("", checkoutHandler.Checkout)
	}
}

// setupOrderRoutes sets up order and payment routes
func setupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, store cache.Store, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(db, cfg)
	paymentHandler := handlers.NewPaymentHandler(db, store, cfg)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:number", orderHandler.GetOrder)
		orders.POST("/:number/cancel", orderHandler.CancelOrder)
		orders.GET("/:number/invoice", orderHandler.GenerateInvoice)
	}

	// Payment initiation needs the same optional auth as checkout so
	// guest orders can be paid for; verification is keyed by reference
	// and needs no auth at all.
	payments := rg.Group("/payments")
	payments.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		payments.GET("/initiate/:orderNumber", paymentHandler.InitiatePayment)
		payments.GET("/verify", paymentHandler.VerifyPayment)
		payments.GET("/banks", paymentHandler.ListBanks)
		payments.GET("/banks/resolve", paymentHandler.ResolveAccount)
	}
}

// setupAccountRoutes sets up address book and wishlist routes
func setupAccountRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	addressHandler := handlers.NewAddressHandler(db, cfg)
	wishlistHandler := handlers.NewWishlistHandler(db, cfg)

	addresses := rg.Group("/addresses")
	addresses.Use(middleware.AuthMiddleware(cfg))
	{
		addresses.GET("", addressHandler.ListAddresses)
		addresses.POST("", addressHandler.CreateAddress)
		addresses.PUT("/:id", addressHandler.UpdateAddress)
		addresses.DELETE("/:id", addressHandler.DeleteAddress)
		addresses.POST("/:id/default", addressHandler.SetDefaultAddress)
	}

	wishlist := rg.Group("/wishlist")
	wishlist.Use(middleware.AuthMiddleware(cfg))
	{
		wishlist.GET("", wishlistHandler.GetWishlist)
		wishlist.DELETE("", wishlistHandler.ClearWishlist)
		wishlist.POST("/:productID", wishlistHandler.AddToWishlist)
		wishlist.DELETE("/:productID", wishlistHandler.RemoveFromWishlist)
		wishlist.POST("/:productID/move-to-cart", wishlistHandler.MoveToCart)
	}
}
