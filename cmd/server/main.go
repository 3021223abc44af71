// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/askdeck/askdeck/internal/config"
	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/handlers"
	"github.com/askdeck/askdeck/internal/middleware"
	apikeyrepo "github.com/askdeck/askdeck/internal/repository/apikey"
	filerepo "github.com/askdeck/askdeck/internal/repository/file"
	promptrepo "github.com/askdeck/askdeck/internal/repository/prompt"
	storerepo "github.com/askdeck/askdeck/internal/repository/store"
	"github.com/askdeck/askdeck/internal/ratelimit"
	"github.com/askdeck/askdeck/internal/services"
	"github.com/askdeck/askdeck/internal/services/engine"
	"github.com/askdeck/askdeck/internal/services/pinecone"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// buildEngine picks the answer engine from configuration: "openai" uses
// provider-hosted stores, "rag" runs retrieval against Pinecone.
func buildEngine(cfg *config.Config, logger services.Logger) (engine.Engine, error) {
	engineCfg := engine.DefaultConfig()
	engineCfg.APIKey = cfg.OpenAIAPIKey
	engineCfg.BaseURL = cfg.OpenAIBaseURL
	engineCfg.AnswerModel = cfg.AnswerModelName
	engineCfg.EmbeddingModel = cfg.EmbeddingModelName

	if cfg.EngineProvider != "rag" {
		return engine.NewOpenAIProvider(engineCfg, logger)
	}

	pineconeCfg := pinecone.DefaultConfig()
	pineconeCfg.APIKey = cfg.PineconeAPIKey
	pineconeCfg.IndexHost = cfg.PineconeIndexHost

	index, err := pinecone.NewClientService(pineconeCfg, logger)
	if err != nil {
		return nil, err
	}
	retry := pinecone.NewRetryService(pineconeCfg, logger)
	return engine.NewRAGProvider(engineCfg, index, retry, cfg.RetrievalTopK, logger)
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.Store{}, &domain.File{}, &domain.Prompt{}, &domain.ApiKey{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	storeRepo := storerepo.NewStoreRepository(db)
	fileRepo := filerepo.NewFileRepository(db)
	promptRepo := promptrepo.NewPromptRepository(db)
	apiKeyRepo := apikeyrepo.NewApiKeyRepository(db)

	// --- Services ---
	logger := services.NewLogger("askdeck")

	answerEngine, err := buildEngine(cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize answer engine: %v", err)
	}

	promptService, err := services.NewPromptService(promptRepo, storeRepo, cfg.MaxPromptsPerStore, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize prompt service: %v", err)
	}

	sessionService, err := services.NewSessionService(storeRepo, promptService, answerEngine, cfg.AnswerModelName, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize session service: %v", err)
	}

	storeService, err := services.NewStoreService(storeRepo, fileRepo, promptRepo, apiKeyRepo, sessionService, answerEngine, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize store service: %v", err)
	}

	apiKeyService, err := services.NewApiKeyService(apiKeyRepo, promptRepo, storeRepo, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize api key service: %v", err)
	}

	accessService, err := services.NewAccessService(apiKeyService, []byte(cfg.JWTSecretKey), cfg.AdminSecret, 24*time.Hour, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize access service: %v", err)
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(accessService)
	storeHandler := handlers.NewStoreHandler(storeService)
	promptHandler := handlers.NewPromptHandler(promptService)
	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyService)
	chatHandler := handlers.NewChatHandler(sessionService)

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewAuthMiddleware(accessService)

	authLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAuthConfig())
	defer authLimiter.Close()
	apiLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAPIConfig())
	defer apiLimiter.Close()

	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")

	tokenRoute := middleware.RateLimitMiddleware(authLimiter, "token")(
		middleware.AuthSuccessMiddleware(authLimiter, "token")(
			http.HandlerFunc(authHandler.IssueToken)))
	r.Handle("/api/auth/token", tokenRoute).Methods("POST")

	// --- Authenticated Routes (JWT or API key) ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RateLimitMiddleware(apiLimiter, "api"))
	api.Use(authMiddleware)

	api.HandleFunc("/chat/start", chatHandler.StartChat).Methods("POST")
	api.HandleFunc("/chat/message", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chat/history", chatHandler.GetHistory).Methods("GET")
	api.HandleFunc("/chat", chatHandler.EndChat).Methods("DELETE")
	api.HandleFunc("/query", chatHandler.Query).Methods("POST")

	// --- Management Routes (JWT only) ---
	admin := api.PathPrefix("/").Subrouter()
	admin.Use(middleware.RequirePrimary)

	admin.HandleFunc("/stores", storeHandler.CreateStore).Methods("POST")
	admin.HandleFunc("/stores", storeHandler.ListStores).Methods("GET")
	admin.HandleFunc("/stores/{id:[0-9]+}", storeHandler.GetStore).Methods("GET")
	admin.HandleFunc("/stores/{id:[0-9]+}", storeHandler.DeleteStore).Methods("DELETE")
	admin.HandleFunc("/stores/{id:[0-9]+}/files", storeHandler.UploadFile).Methods("POST")
	admin.HandleFunc("/stores/{id:[0-9]+}/files", storeHandler.ListFiles).Methods("GET")
	admin.HandleFunc("/stores/{id:[0-9]+}/files/{fileID:[0-9]+}", storeHandler.DeleteFile).Methods("DELETE")

	admin.HandleFunc("/stores/{id:[0-9]+}/prompts", promptHandler.CreatePrompt).Methods("POST")
	admin.HandleFunc("/stores/{id:[0-9]+}/prompts", promptHandler.ListPrompts).Methods("GET")
	admin.HandleFunc("/stores/{id:[0-9]+}/prompts/{promptID:[0-9]+}", promptHandler.UpdatePrompt).Methods("PUT")
	admin.HandleFunc("/stores/{id:[0-9]+}/prompts/{promptID:[0-9]+}", promptHandler.DeletePrompt).Methods("DELETE")
	admin.HandleFunc("/stores/{id:[0-9]+}/prompts/{promptID:[0-9]+}/activate", promptHandler.SetActivePrompt).Methods("POST")

	admin.HandleFunc("/keys", apiKeyHandler.CreateApiKey).Methods("POST")
	admin.HandleFunc("/keys", apiKeyHandler.ListApiKeys).Methods("GET")
	admin.HandleFunc("/keys/{id:[0-9]+}", apiKeyHandler.DeleteApiKey).Methods("DELETE")

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("AskDeck knowledge-base service starting on port %s (engine=%s)", port, cfg.EngineProvider)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped.")
}
