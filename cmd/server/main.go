package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/embeddings"
	"github.com/mikeboe/research-agent/pkg/evidence"
	"github.com/mikeboe/research-agent/pkg/reddit"
	"github.com/mikeboe/research-agent/pkg/research"
	"github.com/mikeboe/research-agent/pkg/server"
	"github.com/mikeboe/research-agent/pkg/websearch"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Database is optional; without it the service answers questions but
	// keeps no run history and no evidence store.
	var db *database.PostgresDB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
	}

	pipeline, err := buildPipeline(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	svc := server.NewService(db, pipeline, version)
	handler := server.NewHandler(svc)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config, db *database.PostgresDB) (*research.Pipeline, error) {
	llm, err := clients.GoogleAI(cfg.ReasoningModel)
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutSec) * time.Second

	primary, err := websearch.New(cfg.PrimaryEngine, cfg.ApiKeyFor(cfg.PrimaryEngine), fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init primary search engine: %w", err)
	}
	secondary, err := websearch.New(cfg.SecondaryEngine, cfg.ApiKeyFor(cfg.SecondaryEngine), fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init secondary search engine: %w", err)
	}

	var store research.EvidenceStore
	if db != nil {
		embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to init embedder: %w", err)
		}
		s, err := evidence.New(ctx, db, embedder, cfg.CollectionName, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("failed to init evidence store: %w", err)
		}
		store = s
	}

	return &research.Pipeline{
		Primary:       primary,
		PrimaryName:   cfg.PrimaryEngine,
		Secondary:     secondary,
		SecondaryName: cfg.SecondaryEngine,
		Discussion:    reddit.NewClient(fetchTimeout),
		Analyzer:      &research.Analyzer{LLM: llm},
		Synthesizer:   &research.Synthesizer{LLM: llm},
		Evidence:      store,
		Opts: research.Options{
			WebResultLimit:  cfg.WebResultLimit,
			DiscussionLimit: cfg.DiscussionLimit,
			MaxThreads:      cfg.MaxThreads,
			MaxComments:     cfg.MaxComments,
			EvidenceTopK:    cfg.EvidenceTopK,
			Timeout:         time.Duration(cfg.PipelineTimeoutSec) * time.Second,
		},
	}, nil
}
