package main

import (
	"log"

	"github.com/joho/godotenv"

	"filer/internal/config"
	"filer/internal/database"
	"filer/internal/domain"
)

const mb = 1 << 20

var defaultPolicies = []domain.TypePolicy{
	{Name: "PNG image", MimeType: "image/png", Extension: "png", MaxSize: 10 * mb, Scope: domain.ScopeBoth},
	{Name: "JPEG image", MimeType: "image/jpeg", Extension: "jpg", MaxSize: 10 * mb, Scope: domain.ScopeBoth},
	{Name: "GIF image", MimeType: "image/gif", Extension: "gif", MaxSize: 5 * mb, Scope: domain.ScopeBoth},
	{Name: "WebP image", MimeType: "image/webp", Extension: "webp", MaxSize: 10 * mb, Scope: domain.ScopeBoth},
	{Name: "PDF document", MimeType: "application/pdf", Extension: "pdf", MaxSize: 20 * mb, Scope: domain.ScopeMember},
	{Name: "PDF document (anonymous)", MimeType: "application/pdf", Extension: "pdf", MaxSize: 5 * mb, Scope: domain.ScopeAnonymous},
	{Name: "Plain text", MimeType: "text/plain", Extension: "txt", MaxSize: 1 * mb, Scope: domain.ScopeBoth},
	{Name: "MP4 video", MimeType: "video/mp4", Extension: "mp4", MaxSize: 200 * mb, Scope: domain.ScopeMember},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Seeding type policies...")
	created := 0
	for i, p := range defaultPolicies {
		p.IsActive = true
		p.DisplayOrder = i
		var existing int64
		if err := db.Model(&domain.TypePolicy{}).
			Where("mime_type = ? AND scope = ?", p.MimeType, p.Scope).
			Count(&existing).Error; err != nil {
			log.Fatalf("seed policy %s: %v", p.Name, err)
		}
		if existing > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("seed policy %s: %v", p.Name, err)
		}
		created++
	}

	log.Printf("Seed completed: type_policies created=%d existing=%d", created, len(defaultPolicies)-created)
}
