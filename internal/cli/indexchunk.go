package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/config"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/database"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/openai"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/repository"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/storage"
	"github.com/spf13/cobra"
)

// IndexChunkCmd returns the index-chunk command. It runs a single chunk event
// through the pipeline and prints the result, useful for replaying failed
// events by hand.
func IndexChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-chunk [event-file]",
		Short: "Index a single chunk event",
		Long:  "Read a chunk event as JSON from a file (or stdin when omitted), run it through the indexing pipeline and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIndexChunk,
	}
	return cmd
}

func runIndexChunk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("S3 storage not configured: AUTORFP_S3_ENDPOINT, AUTORFP_S3_ACCESS_KEY and AUTORFP_S3_SECRET_KEY are required")
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("embedding provider not configured: AUTORFP_OPENAI_API_KEY is required")
	}

	var raw []byte
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read event file: %w", err)
		}
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read event from stdin: %w", err)
		}
	}

	var event domain.ChunkEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("failed to parse chunk event: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

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

	orchestrator := newOrchestrator(
		repository.NewDocumentRecordRepository(pool),
		s3Client,
		openai.NewClient(cfg.OpenAIAPIKey),
		repository.NewDocumentChunkRepository(pool),
		cfg.DocumentsBucket,
	)

	result, err := orchestrator.IndexChunk(ctx, &event)
	if err != nil {
		return fmt.Errorf("failed to index chunk: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
