package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	appanalyses "github.com/bryanwahyu/pitchlens/internal/application/analyses"
	appidentity "github.com/bryanwahyu/pitchlens/internal/application/identity"
	"github.com/bryanwahyu/pitchlens/internal/config"
	domanalyses "github.com/bryanwahyu/pitchlens/internal/domain/analyses"
	"github.com/bryanwahyu/pitchlens/internal/domain/genfailures"
	"github.com/bryanwahyu/pitchlens/internal/domain/generation"
	domid "github.com/bryanwahyu/pitchlens/internal/domain/identity"
	"github.com/bryanwahyu/pitchlens/internal/infra/ai/gemini"
	aiopenai "github.com/bryanwahyu/pitchlens/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/pitchlens/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/pitchlens/internal/infra/db/postgres"
	"github.com/bryanwahyu/pitchlens/internal/infra/httpserver"
	googleid "github.com/bryanwahyu/pitchlens/internal/infra/identity/google"
	minioStore "github.com/bryanwahyu/pitchlens/internal/infra/storage"
	"github.com/bryanwahyu/pitchlens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (mysql default, postgres alternate)
	var (
		db       *sql.DB
		repo     domanalyses.Repository
		profiles domid.ProfileRepository
		failures genfailures.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewAnalysisRepository(db)
		profiles = postgresp.NewProfileRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewAnalysisRepository(db)
		profiles = mysqlp.NewProfileRepository(db)
		failures = mysqlp.NewFailureRepository(db)
	}
	defer db.Close()

	// init generation client; none configured → placeholder results
	var gen generation.Client
	switch cfg.Generation.Provider {
	case "openai":
		gen = aiopenai.NewClient(cfg.Generation.APIKey, cfg.Generation.Model)
	case "gemini":
		gen = gemini.NewClient(cfg.Generation.APIKey, cfg.Generation.Model, cfg.Generation.Endpoint)
	default:
		log.Println("no generation provider configured, analyses will use placeholder results")
	}

	// init minio archive (optional)
	var archive domanalyses.ArchiveStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = store
	}

	// init services
	analysesSvc := &appanalyses.Service{
		Repo:       repo,
		Gen:        gen,
		Archive:    archive,
		Failures:   failures,
		Clock:      appanalyses.SystemClock{},
		GenTimeout: cfg.GenerationTimeout(),
		Provider:   cfg.Generation.Provider,
	}
	identitySvc := appidentity.NewService(
		googleid.NewVerifier(cfg.Auth.TokenInfoURL),
		profiles,
		nil,
	)

	// init sessions
	sessions := middleware.NewSessionManager(cfg.Session.CookieName, cfg.SessionTTL(), cfg.Session.Secure)

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(analysesSvc, identitySvc, sessions, httpserver.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
		RateLimitCapacity: 10,
		RateLimitRefill:   1,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // analyze holds the request for up to one generation timeout
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
