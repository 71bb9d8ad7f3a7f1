package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jmaccoe/rent-wht-service/api"
	"github.com/jmaccoe/rent-wht-service/internal/auth"
	"github.com/jmaccoe/rent-wht-service/internal/db"
	"github.com/jmaccoe/rent-wht-service/internal/logger"
	"github.com/jmaccoe/rent-wht-service/internal/models"
	"github.com/jmaccoe/rent-wht-service/internal/storage"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	config, err := loadConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Setup(config.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := auth.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth")
	}
	log.Info().Msg("JWT authentication initialized")

	if err := db.Init(); err != nil {
		log.Warn().Err(err).Msg("database not available, running without persistence")
	} else {
		defer db.Close()
		log.Info().Msg("database connection pool initialized")
	}

	if err := storage.Init(); err != nil {
		log.Warn().Err(err).Msg("storage not available, documents will not be kept")
	} else {
		log.Info().Msg("document storage initialized")
	}

	handler := api.NewHandler(config)
	router := handler.SetupRoutes()
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// JWT middleware skips /health and /api/login
	protectedRouter := auth.JWTMiddleware(router)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Info().
		Str("addr", addr).
		Str("version", api.Version).
		Bool("database", db.Pool != nil).
		Bool("storage", storage.Client != nil).
		Bool("ai_assist", config.AI.Enabled).
		Msg("starting rent withholding-tax service")

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func loadConfig(path string) (*models.Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if lang := os.Getenv("OCR_LANGUAGE"); lang != "" {
		config.OCR.Language = lang
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
		config.AI.Enabled = true
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	return config, nil
}

func defaultConfig() *models.Config {
	return &models.Config{
		Port: 8080,
		Host: "0.0.0.0",
		OCR: models.OCRConfig{
			Language: "eng",
		},
		AI: models.AIConfig{
			Enabled:         false,
			DefaultProvider: "openai",
			OpenAI: models.OpenAIConfig{
				Model: "gpt-4o-mini",
			},
			Gemini: models.GeminiConfig{
				Model: "gemini-1.5-flash",
			},
		},
		Log: logger.DefaultConfig(),
	}
}
