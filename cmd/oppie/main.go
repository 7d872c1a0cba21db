package main

// @title           Oppie API
// @version         1.0
// @description     Turns PDF study documents into true/false quiz sessions, with spaced-repetition flashcards and per-domain score tracking.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/oppie/internal/adapters/driven/ai"
	"github.com/custodia-labs/oppie/internal/adapters/driven/auth"
	"github.com/custodia-labs/oppie/internal/adapters/driven/file"
	"github.com/custodia-labs/oppie/internal/adapters/driven/memory"
	"github.com/custodia-labs/oppie/internal/adapters/driven/pdf"
	redisadapter "github.com/custodia-labs/oppie/internal/adapters/driven/redis"
	httpadapter "github.com/custodia-labs/oppie/internal/adapters/driving/http"
	"github.com/custodia-labs/oppie/internal/config"
	"github.com/custodia-labs/oppie/internal/core/domain"
	"github.com/custodia-labs/oppie/internal/core/ports/driven"
	"github.com/custodia-labs/oppie/internal/core/services"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "oppie.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to prepare directories: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	log.Printf("oppie %s starting", version)

	ctx := context.Background()

	// ===== Storage backend =====
	var (
		quizStore        driven.QuizStore
		userStore        driven.UserStore
		authSessionStore driven.AuthSessionStore
		flashcardStore   driven.FlashcardStore
		scoreStore       driven.ScoreStore
		generationLock   driven.GenerationLock
		storePinger      httpadapter.Pinger
	)

	if cfg.UseRedis() {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		log.Println("Redis connected")

		redisQuizStore := redisadapter.NewQuizStore(client)
		quizStore = redisQuizStore
		userStore = redisadapter.NewUserStore(client)
		authSessionStore = redisadapter.NewAuthSessionStore(client)
		flashcardStore = redisadapter.NewFlashcardStore(client)
		scoreStore = redisadapter.NewScoreStore(client)
		generationLock = redisadapter.NewLock(client)
		storePinger = redisQuizStore
	} else {
		log.Printf("Using file storage in %s", cfg.Storage.StateDir)
		stateDir := cfg.Storage.StateDir

		fileQuizStore, err := file.NewQuizStore(stateDir)
		if err != nil {
			log.Fatalf("Failed to open quiz store: %v", err)
		}
		fileUserStore, err := file.NewUserStore(stateDir)
		if err != nil {
			log.Fatalf("Failed to open user store: %v", err)
		}
		fileAuthSessionStore, err := file.NewAuthSessionStore(stateDir)
		if err != nil {
			log.Fatalf("Failed to open auth session store: %v", err)
		}
		fileFlashcardStore, err := file.NewFlashcardStore(stateDir)
		if err != nil {
			log.Fatalf("Failed to open flashcard store: %v", err)
		}
		fileScoreStore, err := file.NewScoreStore(stateDir)
		if err != nil {
			log.Fatalf("Failed to open score store: %v", err)
		}

		quizStore = fileQuizStore
		userStore = fileUserStore
		authSessionStore = fileAuthSessionStore
		flashcardStore = fileFlashcardStore
		scoreStore = fileScoreStore
		// Single-process deployment for the file backend
		generationLock = memory.NewLock()
	}

	// ===== Question model =====
	questionModel, err := ai.NewOpenAIQuestionModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	if err != nil {
		log.Fatalf("Failed to configure question model: %v", err)
	}

	// ===== Domain mapping (optional) =====
	mapping, err := file.LoadDomainMapping(cfg.DataDir)
	if err != nil {
		log.Printf("Warning: failed to load domain mapping: %v", err)
		mapping = &domain.DomainMapping{}
	}

	// ===== Core services =====
	authService := services.NewAuthService(userStore, authSessionStore, auth.NewAdapter(cfg.Auth.JWTSecret))
	quizService := services.NewQuizGenerationService(services.QuizGenerationConfig{
		Store:     quizStore,
		Lock:      generationLock,
		Model:     questionModel,
		Extractor: pdf.NewExtractor(),
		Chunker:   services.NewChunker(services.DefaultChunkerConfig()),
		Logger:    logger,
		DataDir:   cfg.DataDir,
	})
	flashcardService := services.NewFlashcardService(flashcardStore)
	domainService := services.NewDomainStatsService(scoreStore, mapping)
	fileService := services.NewFileService(cfg.DataDir)

	// ===== HTTP server =====
	serverCfg := httpadapter.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Version: version,
	}
	server := httpadapter.NewServer(
		serverCfg,
		authService,
		quizService,
		flashcardService,
		domainService,
		fileService,
		storePinger,
	)

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
