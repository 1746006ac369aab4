package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"agromart.store/app/internal/config"
	"agromart.store/app/internal/database"
	apphttp "agromart.store/app/internal/http"
	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/mailer"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/email"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/modules/payments"
	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(ctx, cfg.DB, cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	// Redis is optional: without it the cart summary is uncached and the
	// checkout lock only covers this process.
	var (
		cartCache cart.Cache      = cart.NoopCache{}
		locker    payments.Locker = payments.NewMemoryLocker()
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis_unavailable", "addr", cfg.Redis.Addr, "err", err)
		}
		cartCache = cart.NewRedisCache(rdb)
		locker = payments.NewRedisLocker(rdb, logger)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("storage_ready", "backend", files)

	mail, err := mailer.New(cfg.SMTP)
	if err != nil {
		return err
	}
	notifier := email.NewNotifier(mail, email.NotifierCfg{
		FromAddr:         cfg.SMTP.From,
		FromName:         cfg.SMTP.FromName,
		ContactRecipient: cfg.Contact.Recipient,
		BaseURL:          cfg.HTTP.BaseURL,
	})

	gw, err := payments.NewGateway(cfg.Gateway, logger)
	if err != nil {
		return err
	}

	catalogRepo := catalog.NewRepo(db)
	carts := cart.NewService(cart.NewRepo(db), cartCache, logger)
	orderRepo := orders.NewRepo(db)

	checkout := payments.NewCheckoutService(db, carts, orderRepo, gw, locker, payments.CheckoutConfig{
		Currency:       cfg.Gateway.Currency,
		CallbackURL:    strings.TrimRight(cfg.HTTP.BaseURL, "/") + apphttp.CallbackPath,
		LockTTL:        cfg.Gateway.CheckoutLockTTL,
		GatewayTimeout: cfg.Gateway.Timeout,
	})
	checkout.SetLogger(logger)

	callbacks := payments.NewCallbackService(db, orderRepo, carts, gw)
	callbacks.SetLogger(logger)
	callbacks.SetReceiptSender(notifier)

	deps := apphttp.Deps{
		Logger: logger,
		DB:     db,
		Session: middleware.SessionCfg{
			DB:         db,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
			TTL:        cfg.Session.TTL,
		},
		SecureCookies:  cfg.Session.Secure,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CatalogRepo:    catalogRepo,
		CatalogSvc:     catalog.NewService(catalogRepo, files),
		Carts:          carts,
		Checkout:       checkout,
		Callbacks:      callbacks,
		Orders:         orderRepo,
		Users:          users.NewService(db),
		Notifier:       notifier,
	}
	if cfg.Storage.Driver == "local" {
		deps.UploadDir = cfg.Storage.LocalDir
		deps.UploadURLPrefix = cfg.Storage.LocalURLPrefix
	}

	r, err := apphttp.NewRouter(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", cfg.HTTP.Addr, "env", cfg.Env, "gateway", cfg.Gateway.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("http_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
