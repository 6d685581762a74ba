package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"guitar-service/internal/aggregate"
	"guitar-service/internal/api"
	"guitar-service/internal/cache"
	"guitar-service/internal/config"
	"guitar-service/internal/events"
	"guitar-service/internal/repository"
	"guitar-service/internal/s3"
	"guitar-service/internal/service"
	"guitar-service/internal/tracing"
	_ "guitar-service/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	api.SetupGlobalHandler(cfg.ServiceName, cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg.DatabaseURL)
		return
	}

	ctx := context.Background()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	db := connectDB(cfg.DatabaseURL)
	defer db.Close()

	var blobs service.BlobStore
	if cfg.PhotoBackend == config.PhotoBackendS3 {
		store, err := s3.NewBlobStore(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to configure S3 photo storage: %v", err)
		}
		blobs = store
		log.Printf("Storing photos in S3 bucket %s", cfg.S3.BucketName)
	}

	var photoCache service.PhotoCache
	if cfg.Redis.Addr != "" {
		client, err := cache.InitRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("WARNING: photo cache disabled: %v", err)
		} else {
			defer client.Client.Close()
			photoCache = cache.NewPhotoCache(client, cfg.Redis.TTL)
		}
	}

	var publisher events.EventPublisher = events.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, nc, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		publisher = natsPublisher
		log.Println("Successfully connected to NATS.")
	}

	userRepo := repository.NewPostgresUserRepository(db)
	guitarRepo := repository.NewPostgresGuitarRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	guitarService := service.NewGuitarService(guitarRepo, aggregate.PhotoURL(cfg.PublicBaseURL), blobs, photoCache, publisher)
	photoService := service.NewPhotoService(guitarRepo, blobs, photoCache)

	app := fiber.New(api.NewFiberConfig(cfg.ServiceName, cfg.MaxPhotoBytes))
	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.ServiceName})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.SetupRoutes(app, api.Handlers{
		Auth:     api.NewAuthHandler(authService),
		Guitars:  api.NewGuitarHandler(guitarService, cfg.MaxPhotoBytes),
		Photos:   api.NewPhotoHandler(photoService),
		Resolver: authService,
	}, cfg.RequestTimeout)

	slog.Info("Listening", "service", cfg.ServiceName, "port", cfg.Port, "photo_backend", cfg.PhotoBackend)
	log.Fatal(app.Listen(":" + cfg.Port))
}

func connectDB(databaseURL string) *sqlx.DB {
	db, err := sqlx.Connect("pgx", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations(databaseURL string) {
	fmt.Println("Running database migrations...")

	db := connectDB(databaseURL)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
