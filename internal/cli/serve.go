package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api/handlers"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api/middleware"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/config"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/database"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/indexer"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/jobs"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/openai"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/repository"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/server"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/service"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/storage"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the indexing API server",
		Long:  "Start the document chunk indexing server and its background chunk worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Disable the background chunk worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasS3() {
		return fmt.Errorf("S3 storage not configured: AUTORFP_S3_ENDPOINT, AUTORFP_S3_ACCESS_KEY and AUTORFP_S3_SECRET_KEY are required")
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("embedding provider not configured: AUTORFP_OPENAI_API_KEY is required")
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.DocumentsBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("S3 bucket '%s' ready", cfg.DocumentsBucket)

	embeddingClient := openai.NewClient(cfg.OpenAIAPIKey)

	docRepo := repository.NewDocumentRecordRepository(pool)
	chunkJobRepo := repository.NewChunkJobRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)

	orchestrator := newOrchestrator(docRepo, s3Client, embeddingClient, chunkRepo, cfg.DocumentsBucket)
	documentSvc := service.NewDocumentService(docRepo, s3Client, chunkRepo)
	ingestSvc := service.NewIngestService(docRepo, s3Client, chunkJobRepo)

	chunkWorker := jobs.NewChunkWorker(chunkJobRepo, orchestrator, cfg.WorkerBatchSize)
	var worker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		worker = jobs.NewWorker(chunkWorker, cfg.WorkerPollInterval)
		go worker.Start(ctx)
		log.Println("chunk worker started")
	}

	router := server.NewRouter(server.RouterConfig{
		KeyValidator:    middleware.NewStaticKeyValidator(cfg.APIKeys),
		DocumentHandler: handlers.NewDocumentHandler(documentSvc, ingestSvc),
		ChunkHandler:    handlers.NewChunkHandler(orchestrator),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// newOrchestrator assembles the chunk indexing pipeline from its parts.
func newOrchestrator(docRepo *repository.DocumentRecordRepository, s3Client *storage.S3Client, embeddingClient *openai.Client, chunkRepo *repository.DocumentChunkRepository, bucket string) *indexer.Orchestrator {
	resolver := indexer.NewChunkTextResolver(s3Client, bucket)
	retrier := indexer.NewRetryExecutor(docRepo)
	marker := indexer.NewCompletionMarker(docRepo, retrier)
	vector := service.NewChunkIndexService(embeddingClient, chunkRepo)
	return indexer.NewOrchestrator(docRepo, resolver, vector, marker)
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
