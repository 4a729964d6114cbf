package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/himalayan-naturals/storefront-backend/api/controllers"
	"github.com/himalayan-naturals/storefront-backend/api/routes"
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
	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	"github.com/himalayan-naturals/storefront-backend/pkg/migrate"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/redis"
	"github.com/himalayan-naturals/storefront-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	taxRate, err := cfg.Pricing.Rate()
	if err != nil {
		return err
	}
	signupBonus, err := cfg.Wallet.SignupBonusAmount()
	if err != nil {
		return err
	}
	referralFallback, err := cfg.Wallet.ReferralBonusAmount()
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT, cfg.Cart.GuestTTL)
	if err != nil {
		return err
	}

	gdb := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	userRepo := users.NewRepository(gdb)
	walletRepo := wallet.NewRepository(gdb)

	ledger, err := wallet.NewLedger(walletRepo, emitter, ledgerMetrics)
	if err != nil {
		return err
	}
	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:    walletRepo,
		Ledger:  ledger,
		Tx:      dbClient,
		Logger:  logg,
		Metrics: ledgerMetrics,
	})
	if err != nil {
		return err
	}
	usersService, err := users.NewService(userRepo, dbClient, logg)
	if err != nil {
		return err
	}
	settingsService, err := settings.NewService(settings.NewRepository(gdb), referralFallback, logg)
	if err != nil {
		return err
	}
	referralService, err := referrals.NewService(referrals.ServiceParams{
		Users:    userRepo,
		Ledger:   ledger,
		Settings: settingsService,
		Outbox:   emitter,
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userRepo,
		Profiles:       usersService,
		Referrals:      referralService,
		Ledger:         ledger,
		Outbox:         emitter,
		Tx:             dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		SignupBonus:    signupBonus,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	productService, err := product.NewService(product.NewRepository(gdb), logg)
	if err != nil {
		return err
	}
	promoService, err := promos.NewService(promos.NewRepository(gdb))
	if err != nil {
		return err
	}
	cartStore := cart.NewStore(redisClient, cfg.Cart.GuestTTL)
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:   cartStore,
		Lines:   productService,
		Coupons: promoService,
		TaxRate: taxRate,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	wishlistService, err := wishlist.NewService(redisClient, productService, cfg.Cart.GuestTTL)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(gdb),
		Ledger:  ledger,
		Outbox:  emitter,
		Tx:      dbClient,
		Cart:    cartService,
		Coupons: promoService,
		TaxRate: taxRate,
		Logger:  logg,
		Metrics: ledgerMetrics,
	})
	if err != nil {
		return err
	}
	postsService, err := posts.NewService(posts.NewRepository(gdb), logg)
	if err != nil {
		return err
	}
	messagesService, err := messages.NewService(messages.NewRepository(gdb), logg)
	if err != nil {
		return err
	}
	mediaService, err := media.NewService(gcsClient, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Ready: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Sessions:    sessionManager,
		RateLimits:  redisClient,
		Idempotency: redisClient,
		Auth:        authService,
		Products:    productService,
		Cart:        cartService,
		Wishlist:    wishlistService,
		Orders:      ordersService,
		Users:       usersService,
		Wallet:      walletService,
		Referrals:   referralService,
		Promos:      promoService,
		Settings:    settingsService,
		Posts:       postsService,
		Messages:    messagesService,
		Media:       mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(gctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
