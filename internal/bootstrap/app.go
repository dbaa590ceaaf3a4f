package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/extraction"
	"policyvault-backend/internal/handoff"
	"policyvault-backend/internal/llm"
	"policyvault-backend/internal/llm/anthropic"
	"policyvault-backend/internal/llm/openai"
	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/config"
	"policyvault-backend/internal/shared/server"
	"policyvault-backend/internal/shared/storage/db"
	"policyvault-backend/internal/shared/storage/object"
	localstore "policyvault-backend/internal/shared/storage/object/local"
	s3store "policyvault-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies and the fully wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	PoliciesRepo  policies.Repo
	DocumentsRepo documents.Repo
	Handoff       handoff.Store
	LLM           llm.Client

	PoliciesService   *policies.Service
	DocumentsService  *documents.Service
	ExtractionService *extraction.Service
	Committer         *extraction.Committer

	PoliciesHandler   *policies.Handler
	DocumentsHandler  *documents.Handler
	ExtractionHandler *extraction.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	handoffStore, err := buildHandoff(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Handoff: handoffStore,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		PolicyHandler:     app.PoliciesHandler,
		DocumentHandler:   app.DocumentsHandler,
		ExtractionHandler: app.ExtractionHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildHandoff(ctx context.Context, cfg config.Config) (handoff.Store, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return handoff.NewMemoryStore(), nil
	}
	client, err := handoff.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: redis connect failed; using in-memory handoff store: %v", err)
			return handoff.NewMemoryStore(), nil
		}
		return nil, err
	}
	return handoff.NewRedisStore(client, cfg.HandoffTTL), nil
}

func buildLLM(cfg config.Config) llm.Client {
	var (
		client llm.Client
		err    error
	)
	model := strings.TrimSpace(cfg.LLMModel)
	switch cfg.LLMProvider {
	case "openai":
		if model == "" {
			model = "gpt-4o"
		}
		client, err = openai.NewClient(os.Getenv("OPENAI_API_KEY"), model)
	default:
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		client, err = anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), model)
	}
	if err != nil {
		log.Printf("bootstrap: llm client unavailable (%s): %v", cfg.LLMProvider, err)
		return llm.UnconfiguredClient{}
	}
	return client
}

func buildServices(app *App) {
	var policyRepo policies.Repo
	var docRepo documents.Repo
	if app.DB != nil {
		policyRepo = &policies.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		policyRepo = policies.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	app.PoliciesRepo = policyRepo
	app.DocumentsRepo = docRepo
	app.LLM = buildLLM(app.Config)

	app.PoliciesService = &policies.Service{Repo: policyRepo}
	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Repo:     docRepo,
		Policies: policyRepo,
	}
	app.ExtractionService = &extraction.Service{
		Docs:     docRepo,
		Policies: policyRepo,
		Store:    app.Store,
		LLM:      app.LLM,
		Handoff:  app.Handoff,
	}
	app.Committer = &extraction.Committer{
		Policies: policyRepo,
		Docs:     docRepo,
		Handoff:  app.Handoff,
	}

	app.PoliciesHandler = policies.NewHandler(app.PoliciesService)
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService, app.ExtractionService)
	app.ExtractionHandler = extraction.NewHandler(app.ExtractionService, app.Committer)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
