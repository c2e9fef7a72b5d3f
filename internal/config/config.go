package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider selects the chat collaborator backend.
type Provider string

const (
	ProviderMock   Provider = "mock"
	ProviderOpenAI Provider = "openai"
	ProviderVertex Provider = "vertex"
)

type Config struct {
	Port string

	// Inference collaborator
	InferenceBaseURL string
	InferenceTimeout time.Duration
	MaxImageBytes    int64

	// Chat collaborator
	ChatProvider    Provider
	ChatAPIKey      string
	ChatBaseURL     string
	ChatModel       string
	ChatTemperature float32
	ChatMaxTokens   int
	ChatTimeout     time.Duration

	// Vertex backend
	GCPProjectID string
	GCPLocation  string
	VertexModel  string

	// Conversation context window (entries of history per chat call)
	ContextWindow int

	// Heatmap polling policy. HeatmapLabels gates which diagnoses get a
	// heatmap poll at all.
	HeatmapLabels   []string
	PollInterval    time.Duration
	PollMaxAttempts int
	PollMaxElapsed  time.Duration

	NarrationInterval time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func getInt64Env(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("%s must be a number, got %q", key, v)
	}
	return f
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s must be a duration like 1500ms, got %q", key, v)
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseProvider(v string) Provider {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "openai", "together":
		return ProviderOpenAI
	case "vertex", "gcp":
		return ProviderVertex
	default:
		return ProviderMock
	}
}

// Load reads all env vars and builds the config.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("ULTRASCAN_PORT", "8080"),

		InferenceBaseURL: getEnv("ULTRASCAN_INFERENCE_URL", "https://kbaah7-ultrasound-analysis.hf.space"),
		InferenceTimeout: getDurationEnv("ULTRASCAN_INFERENCE_TIMEOUT", 60*time.Second),
		MaxImageBytes:    getInt64Env("ULTRASCAN_MAX_IMAGE_BYTES", 5<<20),

		ChatProvider:    parseProvider(getEnv("ULTRASCAN_CHAT_PROVIDER", "mock")),
		ChatAPIKey:      getEnv("TOGETHER_API_KEY", ""),
		ChatBaseURL:     getEnv("ULTRASCAN_CHAT_BASE_URL", "https://api.together.xyz/v1"),
		ChatModel:       getEnv("ULTRASCAN_CHAT_MODEL", "mistralai/Mixtral-8x7B-Instruct-v0.1"),
		ChatTemperature: float32(getFloatEnv("ULTRASCAN_CHAT_TEMPERATURE", 0.7)),
		ChatMaxTokens:   getIntEnv("ULTRASCAN_CHAT_MAX_TOKENS", 300),
		ChatTimeout:     getDurationEnv("ULTRASCAN_CHAT_TIMEOUT", 30*time.Second),

		GCPProjectID: getEnv("ULTRASCAN_GCP_PROJECT", ""),
		GCPLocation:  getEnv("ULTRASCAN_GCP_LOCATION", "us-central1"),
		VertexModel:  getEnv("ULTRASCAN_VERTEX_MODEL", "gemini-2.5-flash"),

		ContextWindow: getIntEnv("ULTRASCAN_CONTEXT_WINDOW", 4),

		HeatmapLabels:   splitList(getEnv("ULTRASCAN_HEATMAP_LABELS", "Malignant")),
		PollInterval:    getDurationEnv("ULTRASCAN_POLL_INTERVAL", 1500*time.Millisecond),
		PollMaxAttempts: getIntEnv("ULTRASCAN_POLL_MAX_ATTEMPTS", 20),
		PollMaxElapsed:  getDurationEnv("ULTRASCAN_POLL_MAX_ELAPSED", 45*time.Second),

		NarrationInterval: getDurationEnv("ULTRASCAN_NARRATION_INTERVAL", 1500*time.Millisecond),
	}

	if cfg.ChatProvider == ProviderVertex && cfg.GCPProjectID == "" {
		log.Fatal("ULTRASCAN_GCP_PROJECT must be set when the chat provider is vertex")
	}
	if cfg.ChatProvider == ProviderOpenAI && cfg.ChatAPIKey == "" {
		log.Fatal("TOGETHER_API_KEY must be set when the chat provider is openai")
	}

	return cfg
}
