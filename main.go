package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prontuario/odonto/internal/api"
	"github.com/prontuario/odonto/internal/cache"
	"github.com/prontuario/odonto/internal/config"
	"github.com/prontuario/odonto/internal/logger"
	"github.com/prontuario/odonto/internal/metrics"
	"github.com/prontuario/odonto/internal/middleware"
	"github.com/prontuario/odonto/internal/migrate"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/prontuario/odonto/internal/storage"
	"github.com/prontuario/odonto/internal/whatsapp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL não configurada")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("config postgres")
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBMinConns > 0 {
		poolConfig.MinConns = int32(cfg.DBMinConns)
	}
	if cfg.DBMaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão postgres")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping postgres")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("gorm postgres")
	}
	if err := migrate.Run(ctx, db, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	m := metrics.New()

	var imageCache cache.Store
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.ImageCacheTTL, logger.Component("cache"))
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rc.Close()
		imageCache = rc
	} else {
		tc := cache.New(cfg.ImageCacheTTL)
		defer tc.Close()
		imageCache = tc
	}

	loader := &pdf.ImageLoader{
		HTTP:     &http.Client{},
		ProxyURL: cfg.ImageProxyURL,
		Timeout:  cfg.ImageFetchTimeout,
		Cache:    imageCache,
		Metrics:  m,
		Log:      logger.Component("images"),
	}

	h := api.NewHandler(&repo.Records{Pool: pool, DB: db}, &repo.BudgetStore{Pool: pool}, logger.Component("api"))
	h.PublicURL = cfg.AppPublicURL
	h.Metrics = m
	h.Audit = &repo.AuditLog{Pool: pool}
	h.Exporter = &pdf.Exporter{Images: loader, Metrics: m, Log: logger.Component("pdf")}

	if cfg.MinioEndpoint != "" {
		objects, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger.Component("storage"))
		if err != nil {
			log.Fatal().Err(err).Msg("minio")
		}
		loader.Objects = objects
		h.Uploads = objects
	} else {
		log.Info().Msg("MINIO_ENDPOINT vazio: assinaturas ficam como data URL no orçamento")
	}

	wa := whatsapp.NewClient(whatsapp.Config{
		AccountSid: cfg.TwilioAccountSid,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
	}, logger.Component("whatsapp"))
	if !wa.Configured() {
		log.Warn().Msg("Twilio não configurado: links de assinatura não serão enviados por WhatsApp")
	}
	h.Sender = wa

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger.Component("http"), m))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	public := r.PathPrefix("/api").Subrouter()
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	h.Register(public, protected)

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	chain := middleware.Recover(log)(middleware.RequestID(middleware.Timeout(timeout)(middleware.CORS(cfg.CORSOrigins)(r))))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("odonto listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("odonto stopped")
}
