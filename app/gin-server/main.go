package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/getcoachly/coachly/config"
	"github.com/getcoachly/coachly/internal/api/handlers"
	"github.com/getcoachly/coachly/internal/api/middleware"
	"github.com/getcoachly/coachly/internal/api/routes"
	"github.com/getcoachly/coachly/internal/cache"
	"github.com/getcoachly/coachly/internal/logger"
	"github.com/getcoachly/coachly/internal/providers/llm"
	"github.com/getcoachly/coachly/internal/providers/stt"
	"github.com/getcoachly/coachly/internal/ratelimit"
	mongorepo "github.com/getcoachly/coachly/internal/repositories/mongo"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/services"
	"github.com/getcoachly/coachly/internal/storage"
	"github.com/getcoachly/coachly/internal/summarizer"
	"github.com/getcoachly/coachly/internal/trends"
	"github.com/getcoachly/coachly/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	log.Info("PostgreSQL connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	log.Info("MongoDB connected")

	var resultCache cache.Cache
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("Redis unavailable, trend reports cached in process memory only")
		resultCache = cache.NewMemoryCache()
	} else {
		log.Info("Redis connected")
		resultCache = cache.NewRedisCache(config.RedisClient)
	}

	// LLM provider
	var provider llm.Provider
	var err error
	switch os.Getenv("LLM_PROVIDER") {
	case "anthropic":
		provider = llm.NewAnthropicClaude(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_MODEL"))
	default:
		provider, err = llm.NewVertexGemini(ctx, os.Getenv("GCP_PROJECT"), os.Getenv("GCP_LOCATION"), os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.Fatalf("Vertex init error: %v", err)
		}
	}
	defer provider.Close()

	// Summarization: remote analysis function if configured, in-process LLM
	// otherwise.
	var summ summarizer.Summarizer
	if url := os.Getenv("SUMMARIZER_URL"); url != "" {
		summ = summarizer.NewHTTPSummarizer(url, os.Getenv("SUMMARIZER_TOKEN"), os.Getenv("SUMMARIZER_HMAC_SECRET"), logger.Component(log, "summarizer"))
	} else {
		summ = summarizer.NewLLMSummarizer(provider, logger.Component(log, "summarizer"))
	}

	var uploader storage.Uploader
	var signer storage.Signer
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gcs.Close()
		uploader = gcs
		signer = gcs
	}

	var transcriber stt.Provider
	if os.Getenv("STT_ENABLED") == "true" {
		gs, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.Fatalf("Speech-to-Text init error: %v", err)
		}
		defer gs.Close()
		transcriber = gs
	}

	mongoDBName := os.Getenv("MONGO_DB")
	if mongoDBName == "" {
		mongoDBName = "coachly"
	}
	mongoDB := config.MongoClient.Database(mongoDBName)

	// repositories
	repRepo := pgrepo.NewRepRepo(config.PostgresDB)
	teamRepo := pgrepo.NewTeamRepo(config.PostgresDB)
	analysisRepo := pgrepo.NewAnalysisRepo(config.PostgresDB)
	taskRepo := pgrepo.NewTaskRepo(config.PostgresDB)
	fileRepo := pgrepo.NewTranscriptFileRepo(config.PostgresDB)
	chatRepo := mongorepo.NewChatRepo(mongoDB)

	// services
	trendSvc := trends.NewService(repRepo, teamRepo, analysisRepo, resultCache, summ, logger.Component(log, "trends"))
	analysisSvc := services.NewAnalysisService(analysisRepo, fileRepo, uploader, signer, transcriber, provider, logger.Component(log, "analysis"))
	repSvc := services.NewRepService(repRepo, teamRepo)
	taskSvc := services.NewTaskService(taskRepo, logger.Component(log, "tasks"))
	chatSvc := services.NewChatService(chatRepo, repRepo, analysisRepo, provider, logger.Component(log, "chat"))
	enrichSvc := services.NewEnrichmentService(analysisRepo)

	reminder := workers.NewReminderWorker(taskSvc, logger.Component(log, "reminder"))
	if err := reminder.Start(); err != nil {
		log.Fatalf("reminder worker error: %v", err)
	}
	defer reminder.Stop()

	limiter := ratelimit.New(5, time.Minute)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Trends:     handlers.NewTrendsHandler(trendSvc, limiter),
		Analysis:   handlers.NewAnalysisHandler(analysisSvc),
		Reps:       handlers.NewRepHandler(repSvc),
		Tasks:      handlers.NewTaskHandler(taskSvc),
		Chat:       handlers.NewChatHandler(chatSvc),
		Enrichment: handlers.NewEnrichmentHandler(enrichSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
