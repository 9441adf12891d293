package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filer/internal/blob"
	"filer/internal/config"
	"filer/internal/database"
	"filer/internal/domain/file"
	"filer/internal/domain/folder"
	"filer/internal/domain/gallery"
	"filer/internal/domain/policy"
	"filer/internal/events"
	"filer/internal/middleware"
	jwtsvc "filer/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	hub := events.NewHub()
	publisher := events.Multi{hub}
	if cfg.NATSURL != "" {
		nats, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Printf("[NATS] disabled: %v", err)
		} else {
			defer nats.Close()
			publisher = append(publisher, nats)
		}
	}

	policies := policy.NewStore(policy.NewRepository(db), cfg.PolicyCacheTTL)
	folderService := folder.NewService(folder.NewRepository(db), publisher)
	fileRepo := file.NewRepository(db)
	pipeline := file.NewPipeline(folderService, policy.NewValidator(policies), fileRepo, blobs, publisher, file.Options{
		BlobWriteTimeout: cfg.BlobWriteTimeout,
		PublicBaseURL:    cfg.Storage.PublicBaseURL,
		RejectDuplicates: cfg.DuplicatePolicy == config.DuplicateReject,
	})
	fileService := file.NewService(fileRepo, blobs, publisher)
	engine := gallery.NewEngine(db, cfg.GalleryPageSize, time.Now)

	tokens := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "storage": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(hctx) != nil {
			status["database"] = "unavailable"
			healthy = false
		}
		if err := blob.Check(hctx, blobs); err != nil {
			log.Printf("health_check_failed component=storage error=%v", err)
			status["storage"] = "unavailable"
			healthy = false
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Storage.Backend == config.StorageLocal && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	galleryHandler := gallery.NewHandler(engine, hub)
	galleryHandler.RegisterStream(r)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.OptionalAuth(tokens))
	admin := v1.Group("")
	admin.Use(middleware.JWTAuth(tokens), middleware.AdminOnly())

	galleryHandler.RegisterRoutes(v1)
	folder.NewHandler(folderService).RegisterRoutes(v1, admin)
	file.NewHandler(pipeline, fileService).RegisterRoutes(v1, admin)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.Storage.Backend == config.StorageMinio {
		m := cfg.Storage.Minio
		return blob.NewMinioStore(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	}
	return blob.NewLocalStore(cfg.Storage.LocalDir)
}
