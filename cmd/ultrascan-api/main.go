package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	httpadapter "github.com/kbaah7/ultrascan-agent/internal/adapters/http"
	"github.com/kbaah7/ultrascan-agent/internal/adapters/inference"
	"github.com/kbaah7/ultrascan-agent/internal/adapters/llm"
	memstore "github.com/kbaah7/ultrascan-agent/internal/adapters/storage/memory"
	"github.com/kbaah7/ultrascan-agent/internal/app/analysis"
	"github.com/kbaah7/ultrascan-agent/internal/app/conversation"
	"github.com/kbaah7/ultrascan-agent/internal/app/report"
	"github.com/kbaah7/ultrascan-agent/internal/config"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
	"github.com/kbaah7/ultrascan-agent/internal/observability"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := observability.Logger()

	// Chat collaborator: OpenAI-compatible endpoint, Vertex, or mock by ENV.
	var (
		chatClient domain.ChatClient
		err        error
	)
	switch cfg.ChatProvider {
	case config.ProviderOpenAI:
		logger.Info("using OpenAI-compatible chat client", "base_url", cfg.ChatBaseURL, "model", cfg.ChatModel)
		chatClient, err = llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:      cfg.ChatAPIKey,
			BaseURL:     cfg.ChatBaseURL,
			Model:       cfg.ChatModel,
			Temperature: cfg.ChatTemperature,
			MaxTokens:   cfg.ChatMaxTokens,
			Timeout:     cfg.ChatTimeout,
		})
		if err != nil {
			log.Fatalf("error initializing OpenAI chat client: %v", err)
		}
	case config.ProviderVertex:
		logger.Info("using Vertex chat client", "project", cfg.GCPProjectID, "model", cfg.VertexModel)
		chatClient, err = llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.VertexModel)
		if err != nil {
			log.Fatalf("error initializing Vertex chat client: %v", err)
		}
	default:
		logger.Info("using mock chat client")
		chatClient = llm.NewMockClient()
	}

	infClient := inference.NewClient(cfg.InferenceBaseURL, cfg.InferenceTimeout)

	sessionStore := memstore.NewSessionStore()
	recordStore := memstore.NewRecordStore()

	heatmapLabels := make([]domain.DiagnosisLabel, 0, len(cfg.HeatmapLabels))
	for _, l := range cfg.HeatmapLabels {
		heatmapLabels = append(heatmapLabels, domain.DiagnosisLabel(l))
	}

	poller := analysis.NewPoller(infClient, cfg.PollInterval, cfg.PollMaxAttempts, cfg.PollMaxElapsed)
	narrator := analysis.NewNarrator(cfg.NarrationInterval)
	analysisSvc := analysis.NewService(infClient, chatClient, recordStore, poller, narrator, analysis.Options{
		MaxImageBytes: cfg.MaxImageBytes,
		HeatmapLabels: heatmapLabels,
	})
	chatSvc := conversation.NewService(chatClient, cfg.ContextWindow)
	reportSvc := report.NewService(recordStore)

	handler := httpadapter.NewServer(analysisSvc, chatSvc, reportSvc, sessionStore, chatClient, cfg.MaxImageBytes)

	addr := ":" + cfg.Port
	logger.Info("ultrascan API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
