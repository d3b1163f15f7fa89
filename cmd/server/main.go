package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-engine/config"
	"inventory-engine/internal/analytics"
	"inventory-engine/internal/api"
	"inventory-engine/internal/broker"
	"inventory-engine/internal/classify"
	"inventory-engine/internal/deduct"
	"inventory-engine/internal/match"
	"inventory-engine/internal/redisclient"
	"inventory-engine/internal/store"
	"inventory-engine/internal/unit"
	"inventory-engine/internal/util"
	"inventory-engine/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory engine")

	tp, err := util.InitTracer("inventory-engine", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	aliases, err := cfg.Matching.LoadAliases()
	if err != nil {
		log.Fatalf("Failed to load alias table: %v", err)
	}
	patterns, err := cfg.Matching.LoadPatterns()
	if err != nil {
		log.Fatalf("Failed to load pattern table: %v", err)
	}
	conversions, err := cfg.Matching.LoadConversions()
	if err != nil {
		log.Fatalf("Failed to load conversion table: %v", err)
	}

	converter := unit.NewConverter(conversions, unit.DefaultUnitAliases)
	classifier := classify.NewClassifier(patterns)
	matcher := match.NewMatcher(db, converter, classifier, aliases)
	matcher.SetFuzzyThreshold(cfg.Matching.FuzzyThreshold)

	engine := deduct.NewEngine(db, matcher, redisClient, eventPublisher)
	analyzer := analytics.NewAnalyzer(db, redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	saleConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
	saleWorker := worker.NewSaleWorker(saleConsumer, engine)
	go func() {
		if err := saleWorker.Start(workerCtx); err != nil {
			log.Printf("Sale worker error: %v", err)
		}
	}()

	var alertWorker *worker.AlertWorker
	if len(cfg.Alerts.StoreIDs) > 0 {
		interval := time.Duration(cfg.Alerts.IntervalSeconds) * time.Second
		alertWorker = worker.NewAlertWorker(analyzer, eventPublisher, cfg.Alerts.StoreIDs, interval)
		go func() {
			if err := alertWorker.Start(workerCtx); err != nil && err != context.Canceled {
				log.Printf("Alert worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(engine, matcher, analyzer)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	saleWorker.Stop()

	log.Println("Server exited")
}
