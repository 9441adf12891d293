package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"filer/internal/blob"
	"filer/internal/config"
	"filer/internal/database"
	"filer/internal/domain/file"
	"filer/internal/events"
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

	var blobs blob.Store
	if cfg.Storage.Backend == config.StorageMinio {
		m := cfg.Storage.Minio
		blobs, err = blob.NewMinioStore(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	} else {
		blobs, err = blob.NewLocalStore(cfg.Storage.LocalDir)
	}
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		nats, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Printf("[NATS] disabled: %v", err)
		} else {
			defer nats.Close()
			publisher = nats
		}
	}

	svc := file.NewService(file.NewRepository(db), blobs, publisher)
	purged, err := svc.PurgeAnonymous(ctx, cfg.AnonymousRetention)
	if err != nil {
		log.Fatalf("anonymous purge finished with errors: purged=%d error=%v", purged, err)
	}
	log.Printf("anonymous purge completed: purged=%d retention=%s", purged, cfg.AnonymousRetention)
}
