package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/venueops/tktsrecon/internal/adapters/embeddings"
	"github.com/venueops/tktsrecon/internal/application/pipeline"
	"github.com/venueops/tktsrecon/internal/domain/matcher"
	"github.com/venueops/tktsrecon/internal/domain/recon"
	"github.com/venueops/tktsrecon/internal/infrastructure/config"
	"github.com/venueops/tktsrecon/internal/infrastructure/logging"
	"github.com/venueops/tktsrecon/internal/infrastructure/storage"
)

func main() {
	cfg := config.LoadOrEnv()
	logger := logging.NewLogger(cfg.Observability.Logging)
	slog.SetDefault(logger)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// A missing credential skips the matching pass; the run itself still goes
	// ahead and the event-derived columns resolve as unavailable.
	var embedder matcher.Embedder
	embCfg := embeddings.DefaultConfig()
	embCfg.APIKey = cfg.OpenAI.APIKey
	embCfg.Model = cfg.OpenAI.Model
	client, err := embeddings.NewClient(embCfg, store, logger)
	switch {
	case err == nil:
		embedder = client
	case recon.KindOf(err) == recon.KindProviderUnavailable:
		logger.Warn("Similarity provider unavailable, event matching will be skipped")
	default:
		logger.Error("Failed to create embeddings client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	p := pipeline.New(cfg, store, embedder, logger)
	if err := p.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
