package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/yuyuyu0706/quiz-practice/internal/app"
	"github.com/yuyuyu0706/quiz-practice/internal/config"
	filecatalog "github.com/yuyuyu0706/quiz-practice/internal/infra/file"
	"github.com/yuyuyu0706/quiz-practice/internal/infra/memory"
	pgcatalog "github.com/yuyuyu0706/quiz-practice/internal/infra/postgres"
	redisinfra "github.com/yuyuyu0706/quiz-practice/internal/infra/redis"
	transport "github.com/yuyuyu0706/quiz-practice/internal/transport/http"
)

const defaultCatalogPath = "data/questions.json"

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz practice server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	catalogPath := cfg.Catalog.Path
	if catalogPath == "" {
		catalogPath = defaultCatalogPath
	}
	var source redisinfra.CatalogSource = filecatalog.NewCatalog(catalogPath)
	if pool != nil {
		source = pgcatalog.NewCatalog(pool)
	}
	if redisClient != nil {
		catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
		source = redisinfra.NewCatalogCache(redisClient, source, catalogTTL)
	}

	// The catalog is fetched exactly once; a failed or empty fetch is fatal.
	questions, err := source.Load(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	var sessionStore app.SessionStore
	var progressStore app.ProgressStore
	var settingsStore app.SettingsStore
	if redisClient != nil {
		sessionStore = redisinfra.NewSessionStore(redisClient)
		progressStore = redisinfra.NewProgressStore(redisClient)
		settingsStore = redisinfra.NewSettingsStore(redisClient)
	} else {
		sessionStore = memory.NewSessionStore()
		progressStore = memory.NewProgressStore()
		settingsStore = memory.NewSettingsStore()
	}

	tracker, err := app.NewProgressTracker(ctx, progressStore)
	if err != nil {
		return err
	}
	engine := app.NewEngine(questions, sessionStore, tracker)
	settings := app.NewSettingsService(settingsStore, engine.Sections())
	wsHandler := transport.NewWSHandler(engine, settings)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:    ":" + finalPort,
		Handler: mux,
	}

	go func() {
		log.Printf("starting quiz practice on :%s (%d questions)", finalPort, len(questions))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
