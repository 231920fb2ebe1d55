package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/config"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/db"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/logger"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/admission"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/announcement"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/catalog"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/grouping"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/orders"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.AppEnv,
		ServiceName: "bazaar-api",
	})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	policy, err := grouping.ParsePolicy(cfg.GroupingPolicy)
	if err != nil {
		log.Fatal("invalid grouping policy", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var base store.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		base = store.NewMemory()
		log.Warn("using in-memory store, data is lost on restart")
	default:
		gdb, err := db.Connect(cfg.DBDSN, cfg.AppEnv != "production")
		if err != nil {
			log.Fatal("database", zap.Error(err))
		}
		if err := db.Migrate(gdb); err != nil {
			log.Fatal("database", zap.Error(err))
		}
		base = store.NewGorm(gdb)
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)
	if err := metrics.WatchConnections(prometheus.DefaultRegisterer, hub.Count); err != nil {
		log.Warn("connection gauge", zap.Error(err))
	}

	st := base
	var publisher admission.Publisher = &realtime.HubPublisher{Hub: hub}
	if cfg.RedisAddr != "" {
		rdb := realtime.NewRedis(realtime.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
			st = store.NewCached(base, rdb, cfg.CacheTTL, log)
			publisher = &realtime.RedisPublisher{RDB: rdb}
			go realtime.Forward(ctx, rdb, hub, log)
		}
	}

	audit := store.NewAuditWriter(st)
	admissionSvc := admission.NewService(st, log,
		admission.WithAudit(audit),
		admission.WithPublisher(publisher),
		admission.WithPolicy(policy),
		admission.WithStoreTimeout(cfg.StoreTimeout),
	)
	announcementSvc := announcement.NewService(st, log,
		announcement.WithAudit(audit),
		announcement.WithPublisher(publisher),
		announcement.WithStoreTimeout(cfg.StoreTimeout),
	)
	catalogSvc := catalog.NewService(st, audit, log)
	ordersSvc := orders.NewService(st, log,
		orders.WithAudit(audit),
		orders.WithStoreTimeout(cfg.StoreTimeout),
	)

	app := fiber.New(fiber.Config{
		AppName:      "bazaar-api",
		ReadTimeout:  cfg.StoreTimeout + cfg.StoreTimeout/2,
		WriteTimeout: cfg.StoreTimeout + cfg.StoreTimeout/2,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(log))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join([]string{cfg.FrontendBaseURL, "http://127.0.0.1:3000"}, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/metrics", metrics.Handler())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	handlers.Mount(app, handlers.Handlers{
		Auth: &handlers.AuthHandler{
			Users:     st,
			JWTSecret: cfg.JWTSecret,
			Expires:   cfg.JWTExpires(),
		},
		Announcements: &handlers.AnnouncementHandler{
			Announcements: announcementSvc,
			Admission:     admissionSvc,
		},
		Registrations: &handlers.RegistrationHandler{Admission: admissionSvc},
		Products:      handlers.NewProductHandler(catalogSvc),
		Orders:        &handlers.OrderHandler{Orders: ordersSvc},
		Audit:         &handlers.AuditHandler{Logs: st},
		WebSocket:     &handlers.WebSocketHandler{Hub: hub},
	}, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("port", cfg.AppPort), zap.String("store", cfg.StoreDriver))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}
