package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"review-backend/internal/analyses"
	"review-backend/internal/backend"
	"review-backend/internal/catalog"
	"review-backend/internal/market"
	"review-backend/internal/products"
	"review-backend/internal/services/health"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/server"
	"review-backend/internal/shared/storage/db"
	"review-backend/internal/shared/storage/object"
	localstore "review-backend/internal/shared/storage/object/local"
	s3store "review-backend/internal/shared/storage/object/s3"
	"review-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.ObjectStore
	Metrics *metrics.Metrics
	Backend *backend.Client

	ProductsRepo    products.Repo
	AnalysesRepo    analyses.Repo
	AnalysesService *analyses.Service
	HealthService   *health.Service
	MarketHandler   *market.Handler
	ProductsHandler *products.Handler
	AnalysesHandler *analyses.Handler
	CatalogHandler  *catalog.Handler
}

// Build connects storage, constructs services and handlers, and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client, err := backend.New(backend.Options{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
		Metrics: m,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Metrics: m,
		Backend: client,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Metrics:  app.Metrics,
		Health:   app.HealthService,
		Market:   app.MarketHandler,
		Products: app.ProductsHandler,
		Analyses: app.AnalysesHandler,
		Catalog:  app.CatalogHandler,
	})

	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.DefaultServerOptions().With(cfg.PoolOverrides())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database unavailable", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var productRepo products.Repo
	var analysisRepo analyses.Repo
	if app.DB != nil {
		productRepo = &products.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		app.HealthService = health.NewService(app.DB)
	} else {
		productRepo = products.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
		app.HealthService = health.NewService(nil)
	}

	loc := app.Config.ReportLocation()
	analysisSvc := analyses.NewService(analysisRepo, app.Store)

	app.ProductsRepo = productRepo
	app.AnalysesRepo = analysisRepo
	app.AnalysesService = analysisSvc
	app.MarketHandler = market.NewHandler(analysisSvc, app.Backend, app.Metrics, loc)
	app.ProductsHandler = products.NewHandler(productRepo, db.Migrator{DB: app.DB})
	app.AnalysesHandler = analyses.NewHandler(analysisSvc)
	app.CatalogHandler = catalog.NewHandler(app.Backend, analysisSvc, app.Metrics, loc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
