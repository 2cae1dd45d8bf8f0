package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okso-hub/scrum-poker-sub000/internal/cache"
	"github.com/okso-hub/scrum-poker-sub000/internal/config"
	"github.com/okso-hub/scrum-poker-sub000/internal/repository"
	"github.com/okso-hub/scrum-poker-sub000/internal/service"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/rest"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/ws"
)

// @title Planning Poker API
// @version 1.0
// @description Room-based realtime estimation sessions
// @host localhost:8080
// @BasePath /
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Live room state is memory-resident by design. MongoDB and Redis only
	// back the optional summary archive and are skipped when unconfigured.
	var summaryRepo repository.SummaryRepo
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer mongoClient.Disconnect(ctx)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			log.Fatal("Failed to ping MongoDB:", err)
		}
		log.Println("Connected to MongoDB")

		summaryRepo = repository.NewSummaryRepo(mongoClient.Database("scrumpoker"))
	} else {
		log.Println("Warning: MONGO_URI not set, summary archive disabled")
	}

	var summaryCache cache.SummaryCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")

		summaryCache = cache.NewSummaryCache(rdb, cfg.SummaryTTL)
	} else {
		log.Println("Warning: REDIS_ADDR not set, summary cache disabled")
	}

	roomStore := store.NewRoomStore()
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	gameSvc := service.NewGameService(roomStore)
	archiveSvc := service.NewArchiveService(summaryRepo, summaryCache)

	container := &rest.Container{
		Store:          roomStore,
		GameService:    gameSvc,
		ArchiveService: archiveSvc,
		WSHub:          wsHub,
		TeardownDelay:  cfg.RoomTeardownDelay,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /create")
		log.Println("  POST /join")
		log.Println("  GET  /is-admin")
		log.Println("  GET/POST /room/{roomId}/items")
		log.Println("  POST /room/{roomId}/{start|vote|reveal|repeat|next|summary|ban}")
		log.Println("  GET  /summaries/{roomId}")
		log.Println("  WS   /ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
