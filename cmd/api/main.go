package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"paperbase/internal/archive"
	"paperbase/internal/config"
	"paperbase/internal/database"
	"paperbase/internal/database/migration"
	handlers "paperbase/internal/http/handler"
	"paperbase/internal/http/middleware"
	"paperbase/internal/lock"
	"paperbase/internal/ocr"
	"paperbase/internal/otel"
	"paperbase/internal/repository/postgres"
	"paperbase/internal/search"
	"paperbase/internal/service"
	"paperbase/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Tracing first so the otelsql driver wrapper picks up the provider
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Blob storage backend selected by config
	var store storage.Storage
	switch cfg.Storage.Kind {
	case "s3":
		store, err = storage.NewMinIO(cfg.MinIO)
	default:
		store, err = storage.NewLocal(cfg.Storage.LocalRoot)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	// OCR backends; the registry keeps unavailable engines visible for
	// introspection but never resolves them.
	engines := ocr.NewRegistry(cfg.OCR.DefaultEngine, ocr.NewTesseract(cfg.OCR.Languages))

	// Per-document job guard: Redis when configured, in-process otherwise
	var guard lock.Keyed
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		guard = lock.NewRedis(rdb, lock.DefaultTTL)
	} else {
		guard = lock.NewMemory()
	}

	// Repositories and the search index projection
	docRepo := postgres.NewDocumentPostgres(db)
	tagRepo := postgres.NewTagPostgres(db)

	index := search.NewIndex()
	docs, err := docRepo.All(ctx)
	if err != nil {
		log.Fatalf("failed to load documents for the search index: %v", err)
	}
	for i := range docs {
		index.Upsert(&docs[i])
	}

	// Metrics registry: runtime collectors plus HTTP and ingest metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	ingestMetrics, err := service.NewIngestMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register ingest metrics: %v", err)
	}

	// Services
	docSvc := service.NewDocumentService(store, docRepo, tagRepo, index)
	tagSvc := service.NewTagService(tagRepo, docRepo, index)
	ingestSvc := service.NewIngestService(
		store,
		docRepo,
		tagSvc,
		engines,
		guard,
		index,
		archive.Limits{
			MaxFileBytes: cfg.Limits.MaxFileBytes,
			MaxZipBytes:  cfg.Limits.MaxZipBytes,
			MaxUnits:     cfg.Limits.MaxUnits,
		},
		cfg.OCR.Workers,
		time.Duration(cfg.OCR.JobTimeoutSec)*time.Second,
		ingestMetrics,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Limits.MaxZipBytes) + 1<<20,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:      db,
		Docs:    docSvc,
		Tags:    tagSvc,
		Ingest:  ingestSvc,
		Engines: engines,
		Index:   index,
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
