package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"watchshop-be/internal/auth"
	"watchshop-be/internal/config"
	"watchshop-be/internal/coupon"
	"watchshop-be/internal/db"
	"watchshop-be/internal/httpapi"
	"watchshop-be/internal/logger"
	"watchshop-be/internal/loyalty"
	"watchshop-be/internal/metrics"
	"watchshop-be/internal/middleware"
	"watchshop-be/internal/notify"
	"watchshop-be/internal/order"
	"watchshop-be/internal/product"
	"watchshop-be/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app is the wired server: the root handler plus the background pieces
// whose lifetime follows the process.
type app struct {
	handler    http.Handler
	limiter    *middleware.RateLimiter
	dispatcher *notify.Dispatcher
}

func notifiers(cfg *config.Config) []notify.Notifier {
	var out []notify.Notifier
	if cfg.SMTPHost != "" {
		var to []string
		for _, addr := range strings.Split(cfg.NotifyEmailTo, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
		out = append(out, notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       to,
		}))
	}
	if cfg.OrderSheet != "" {
		out = append(out, notify.NewSheetNotifier(cfg.OrderSheet))
	}
	return out
}

func newApp(cfg *config.Config, conn *sql.DB) *app {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := metrics.NewRegistry()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, reg, notifiers(cfg)...)

	couponRepo := coupon.NewRepository(conn)
	couponSvc := coupon.NewService(couponRepo, reg)
	loyaltySvc := loyalty.NewService(conn, loyalty.NewRepository(conn), couponRepo, reg,
		decimal.NewFromFloat(cfg.LoyaltyEarnRate))
	orderSvc := order.NewService(conn, order.NewRepository(conn), couponRepo, loyaltySvc, dispatcher, reg,
		cfg.WhatsAppNumber)
	productSvc := product.NewService(product.NewRepository(conn))
	userSvc := user.NewService(user.NewRepository(conn), tokens)

	router := httpapi.NewRouter(httpapi.Options{
		CORSOrigins:  cfg.CORSOrigins,
		CookieTTL:    cfg.JWTTTL,
		SecureCookie: cfg.IsProduction(),
	}, httpapi.Services{
		Coupons:  couponSvc,
		Orders:   orderSvc,
		Loyalty:  loyaltySvc,
		Products: productSvc,
		Users:    userSvc,
		Metrics:  reg,
	})

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)

	var h http.Handler = otelhttp.NewHandler(router, "watchshop-be")
	h = limiter.Middleware(h)
	h = middleware.AuthMiddleware(tokens)(h)
	h = logger.LoggingMiddleware(h)
	h = logger.RequestIDMiddleware(h)

	return &app{handler: h, limiter: limiter, dispatcher: dispatcher}
}

// serve runs the HTTP server on ln until ctx is cancelled, then drains
// in-flight requests and pending notifications.
func serve(ctx context.Context, cfg *config.Config, a *app, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.limiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.L().Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	err := g.Wait()
	if cerr := a.dispatcher.Close(); cerr != nil {
		logger.L().Warn("close notifiers", zap.Error(cerr))
	}
	return err
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	conn, err := db.NewDatabase(cfg)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer conn.Close()

	ln, err := net.Listen("tcp", ":"+cfg.AppPort)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	return serve(ctx, cfg, newApp(cfg, conn), ln)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}
