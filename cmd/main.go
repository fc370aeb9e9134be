package main

import (
	"context"
	"errors"
	"forensiai/backend/internal/analysis"
	"forensiai/backend/internal/api/handler"
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/media"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/search"
	"forensiai/backend/internal/session"
	"forensiai/backend/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupRedis returns nil when no Redis is configured or reachable.
func setupRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("WARNING: Redis unreachable, realtime and presence disabled: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}

// setupStore connects, migrates and picks the change feed. It returns a nil
// store when no database is configured.
func setupStore(ctx context.Context, cfg config.Config, rdb *redis.Client) storage.RemoteStore {
	if cfg.Offline() {
		log.Println("WARNING: DATABASE_URL not set, running offline; cases live in memory only")
		return nil
	}

	db, err := storage.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var feed storage.ChangeFeed
	switch cfg.RealtimeBackend {
	case "postgres":
		if err := storage.InstallNotifyTriggers(ctx, db, models.TableTeamMessages); err != nil {
			log.Fatalf("Failed to install notify triggers: %v", err)
		}
		feed = storage.NewPostgresFeed(cfg.DatabaseURL)
	default:
		if rdb != nil {
			feed = storage.NewRedisFeed(rdb)
		} else {
			log.Println("WARNING: No Redis configured, team chat will not update live")
		}
	}

	log.Println("Database connection established, migrations complete.")
	return storage.NewStorageService(db, feed)
}

func main() {
	log.Println("Starting ForensiAI backend...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := setupRedis(ctx, cfg)
	remote := setupStore(ctx, cfg, rdb)

	opts := []casesync.Option{casesync.WithStrategy(casesync.ParseStrategy(cfg.SyncStrategy))}
	if cfg.MinioEndpoint != "" {
		uploader, err := media.NewMinioUploader(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("Failed to set up media storage: %v", err)
		}
		opts = append(opts, casesync.WithUploader(uploader))
	}
	var searcher handler.Searcher
	if cfg.MeiliURL != "" {
		index := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer index.Close()
		opts = append(opts, casesync.WithIndexer(index))
		searcher = index
	}
	manager := casesync.NewManager(remote, opts...)

	var (
		tracker session.PresenceTracker
		online  session.OnlineSource
	)
	if rdb != nil {
		defer rdb.Close()
		presence := storage.NewPresence(rdb)
		tracker, online = presence, presence
	}
	registry := session.NewRegistry(manager, remote, tracker)
	if remote == nil && cfg.OfflineAccessToken == "" {
		log.Println("WARNING: OFFLINE_ACCESS_TOKEN not set, officers cannot sign in")
	}
	directory := session.NewDirectory(remote, online, session.WithOfflineToken(cfg.OfflineAccessToken))

	var completer analysis.Completer
	gemini, err := analysis.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to set up completion backend: %v", err)
	}
	if gemini != nil {
		completer = gemini
	} else {
		log.Println("WARNING: GEMINI_API_KEY not set, analysis endpoints disabled")
	}
	ai := analysis.NewService(completer, remote, manager)

	h := handler.NewHandler(manager, registry, directory, ai, searcher, cfg.JWTSecret)
	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        h.Router(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Listening on %s (sync strategy %s)", cfg.Addr, manager.Strategy())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP shutdown: %v", err)
	}
	registry.CloseAll(shutdownCtx)
}
