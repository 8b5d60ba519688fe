package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

type seedCategory struct {
	name, description, icon string
}

var categories = []seedCategory{
	{"Sosyal Medya", "Paylaşım planlama, yorum ve DM otomasyonları", "share-2"},
	{"E-Ticaret", "Sipariş, stok ve kargo süreçleri", "shopping-cart"},
	{"Muhasebe ve Finans", "Fatura, tahsilat ve raporlama", "calculator"},
	{"Pazarlama", "E-posta kampanyaları ve müşteri segmentleri", "megaphone"},
	{"Veri ve Raporlama", "Veri toplama, dönüştürme ve panolar", "bar-chart-2"},
	{"İnsan Kaynakları", "İşe alım ve personel süreçleri", "users"},
	{"Müşteri Hizmetleri", "Destek talepleri ve sohbet botları", "message-circle"},
	{"Verimlilik", "Takvim, doküman ve görev otomasyonları", "zap"},
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for i, c := range categories {
		slug := helpers.Slugify(c.name)
		if _, err := db.ExecContext(ctx, `
			INSERT INTO categories (name, slug, description, icon, sort_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (slug) DO UPDATE
			SET name = EXCLUDED.name, description = EXCLUDED.description,
			    icon = EXCLUDED.icon, sort_order = EXCLUDED.sort_order
		`, c.name, slug, c.description, c.icon, i+1); err != nil {
			log.Fatalf("failed to seed category %s: %v", slug, err)
		}
	}
	fmt.Printf("seeded %d categories\n", len(categories))

	email := getenv("SEED_ADMIN_EMAIL", "admin@otomasyonmagazasi.com")
	password := getenv("SEED_ADMIN_PASSWORD", "Admin12345!")
	username := getenv("SEED_ADMIN_USERNAME", "admin")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, is_verified)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO UPDATE SET is_verified = TRUE, updated_at = NOW()
		RETURNING id
	`, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_profiles (id, username, full_name, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (id) DO UPDATE SET role = 'admin', updated_at = NOW()
	`, id, username, "Yönetici"); err != nil {
		log.Fatalf("failed to seed admin profile: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s username=%s\n", id, email, username)
}
