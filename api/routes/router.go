package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/himalayan-naturals/storefront-backend/api/controllers"
	cartcontrollers "github.com/himalayan-naturals/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/himalayan-naturals/storefront-backend/api/controllers/orders"
	"github.com/himalayan-naturals/storefront-backend/api/middleware"
	"github.com/himalayan-naturals/storefront-backend/internal/auth"
	"github.com/himalayan-naturals/storefront-backend/internal/cart"
	"github.com/himalayan-naturals/storefront-backend/internal/media"
	"github.com/himalayan-naturals/storefront-backend/internal/messages"
	"github.com/himalayan-naturals/storefront-backend/internal/orders"
	"github.com/himalayan-naturals/storefront-backend/internal/posts"
	product "github.com/himalayan-naturals/storefront-backend/internal/products"
	"github.com/himalayan-naturals/storefront-backend/internal/promos"
	"github.com/himalayan-naturals/storefront-backend/internal/referrals"
	"github.com/himalayan-naturals/storefront-backend/internal/settings"
	"github.com/himalayan-naturals/storefront-backend/internal/users"
	"github.com/himalayan-naturals/storefront-backend/internal/wallet"
	"github.com/himalayan-naturals/storefront-backend/internal/wishlist"
	"github.com/himalayan-naturals/storefront-backend/pkg/auth/session"
	"github.com/himalayan-naturals/storefront-backend/pkg/config"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	pkgredis "github.com/himalayan-naturals/storefront-backend/pkg/redis"
)

// Deps is everything the HTTP surface needs. Nil services make their
// endpoints answer INTERNAL_ERROR; nil stores disable the middleware using them.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Ready          map[string]controllers.Pinger

	Sessions    session.AccessSessionChecker
	RateLimits  middleware.RateLimiterStore
	Idempotency pkgredis.ResponseStore

	Auth      auth.Service
	Products  product.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Orders    orders.Service
	Users     users.Service
	Wallet    wallet.Service
	Referrals referrals.Service
	Promos    promos.Service
	Settings  settings.Service
	Posts     posts.Service
	Messages  messages.Service
	Media     media.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		0,
	)
	guestPolicy := middleware.NewAuthRateLimitPolicy(
		"guest",
		cfg.AuthRateLimit.GuestWindow,
		cfg.AuthRateLimit.GuestIPLimit,
		0,
	)
	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	// inline so the full route pattern and the caller are known
	idempotent := middleware.Idempotency(d.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, d.RateLimits, logg)).Post("/signup", controllers.AuthSignup(d.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimits, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(guestPolicy, d.RateLimits, logg)).Post("/guest", controllers.AuthGuest(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(d.Auth, logg))
			r.With(authenticated).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(d.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.Products, logg))
		r.Get("/posts", controllers.PostList(d.Posts, logg))
		r.Get("/posts/{postId}", controllers.PostDetail(d.Posts, logg))
		r.Get("/settings", controllers.SettingsGet(d.Settings, logg))
		r.Post("/messages", controllers.MessageCreate(d.Messages, logg))
		r.Post("/promos/validate", controllers.PromoValidate(d.Promos, logg))

		// guests and accounts
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(d.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(d.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(d.Cart, logg))
				r.Patch("/items", cartcontrollers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items", cartcontrollers.CartRemoveItem(d.Cart, logg))
				r.Post("/quote", cartcontrollers.CartQuote(d.Cart, logg))
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(d.Wishlist, logg))
				r.Post("/{productId}", controllers.WishlistAdd(d.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(d.Wishlist, logg))
			})
			r.With(idempotent).Post("/orders", ordercontrollers.Checkout(d.Orders, logg))

			// accounts only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAccount(logg))
				r.Get("/orders", ordercontrollers.List(d.Orders, logg))
				r.Get("/orders/{orderId}", ordercontrollers.Detail(d.Orders, logg))
				r.Get("/me", controllers.MeProfile(d.Users, logg))
				r.Patch("/me", controllers.MeUpdate(d.Users, logg))
				r.Get("/wallet", controllers.WalletBalance(d.Wallet, logg))
				r.Get("/wallet/transactions", controllers.WalletTransactions(d.Wallet, logg))
				r.Get("/referrals", controllers.ReferralSummary(d.Referrals, logg))
				r.With(idempotent).Post("/referrals/apply", controllers.ReferralApply(d.Referrals, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(d.Products, logg))
		})
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", controllers.AdminPostCreate(d.Posts, logg))
			r.Patch("/{postId}", controllers.AdminPostUpdate(d.Posts, logg))
			r.Delete("/{postId}", controllers.AdminPostDelete(d.Posts, logg))
		})
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", controllers.AdminMessageList(d.Messages, logg))
			r.Delete("/{messageId}", controllers.AdminMessageDelete(d.Messages, logg))
		})
		r.Route("/promos", func(r chi.Router) {
			r.Get("/", controllers.AdminPromoList(d.Promos, logg))
			r.Post("/", controllers.AdminPromoCreate(d.Promos, logg))
			r.Patch("/{promoId}", controllers.AdminPromoUpdate(d.Promos, logg))
			r.Delete("/{promoId}", controllers.AdminPromoDelete(d.Promos, logg))
		})
		r.Put("/settings", controllers.AdminSettingsUpdate(d.Settings, logg))
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(d.Users, logg))
			r.Patch("/{userId}", controllers.AdminUserUpdate(d.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(d.Users, logg))
			r.With(idempotent).Post("/{userId}/wallet", controllers.AdminWalletTopUp(d.Wallet, logg))
			r.With(idempotent).Post("/{userId}/wallet/withdraw", controllers.AdminWalletWithdraw(d.Wallet, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(d.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(d.Orders, logg))
			r.With(idempotent).Patch("/{orderId}", ordercontrollers.AdminUpdate(d.Orders, logg))
			r.Delete("/{orderId}", ordercontrollers.AdminDelete(d.Orders, logg))
		})
		r.Post("/media/upload", controllers.MediaUpload(d.Media, logg))
	})

	return r
}
