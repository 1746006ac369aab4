package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"agromart.store/app/internal/http/handlers"
	"agromart.store/app/internal/http/handlers/admin"
	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/email"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/modules/payments"
	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/shared/validation"
)

// CallbackPath is posted to by the gateway and is exempt from CSRF.
const CallbackPath = "/payments/callback"

type Deps struct {
	Logger *slog.Logger
	DB     *gorm.DB

	Session        middleware.SessionCfg
	SecureCookies  bool
	TrustedProxies []string

	// UploadDir is served under UploadURLPrefix when set (local storage).
	UploadDir       string
	UploadURLPrefix string

	CatalogRepo *catalog.Repo
	CatalogSvc  *catalog.Service
	Carts       *cart.Service
	Checkout    *payments.CheckoutService
	Callbacks   *payments.CallbackService
	Orders      *orders.Repo
	Users       *users.Service
	Notifier    *email.Notifier
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			return nil, err
		}
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.MaxMultipartMemory = 8 << 20

	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
		middleware.SessionMiddleware(d.Session),
		middleware.CSRF(middleware.CSRFCfg{Secure: d.SecureCookies, Exempt: []string{CallbackPath}}),
	)

	if d.UploadDir != "" && d.UploadURLPrefix != "" {
		r.Static(d.UploadURLPrefix, d.UploadDir)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/csrf-token", handlers.CSRFToken)

	catalogH := handlers.NewCatalogHandler(d.CatalogRepo)
	r.GET("/", catalogH.Home)
	r.GET("/categories/:slug", catalogH.Category)
	r.GET("/products", catalogH.Products)
	r.GET("/products/:id", catalogH.Product)

	authH := handlers.NewAuthHandler(d.Users, d.Session)
	r.POST("/auth/register", authH.Register)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/logout", authH.Logout)
	r.GET("/auth/me", middleware.RequireAuth(), authH.Me)

	r.POST("/contact", handlers.NewContactHandler(d.Notifier, d.Logger).Submit)

	r.POST(CallbackPath, handlers.NewPaymentHandler(d.Callbacks).Callback)

	authed := r.Group("/", middleware.RequireAuth())
	{
		cartH := handlers.NewCartHandler(d.Carts)
		authed.GET("/cart", cartH.Show)
		authed.GET("/cart/summary", cartH.Summary)
		authed.POST("/cart/items", cartH.Add)
		authed.PATCH("/cart/items/:id", cartH.Update)
		authed.DELETE("/cart/items/:id", cartH.Remove)
		authed.POST("/add-to-cart/:product_id", cartH.AddByPath)

		checkoutH := handlers.NewCheckoutHandler(d.Carts, d.Checkout)
		authed.GET("/checkout", checkoutH.Show)
		authed.POST("/checkout", checkoutH.Begin)

		ordersH := handlers.NewOrdersHandler(d.Orders)
		authed.GET("/orders", ordersH.List)
		authed.GET("/orders/:id/receipt", ordersH.Receipt)
	}

	adm := r.Group("/admin", middleware.RequireAdmin())
	{
		catH := admin.NewCatalogHandler(d.CatalogSvc)
		adm.POST("/categories", catH.CreateCategory)
		adm.POST("/products", catH.CreateProduct)

		ordH := admin.NewOrdersHandler(d.Orders)
		adm.GET("/orders", ordH.List)
		adm.GET("/orders/:id", ordH.Detail)
	}

	return r, nil
}
