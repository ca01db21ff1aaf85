package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/emrekoc/butika-backend/internal/config"
	"github.com/emrekoc/butika-backend/internal/modules/auth"
	"github.com/emrekoc/butika-backend/internal/modules/catalog"
	"github.com/emrekoc/butika-backend/internal/modules/notification"
	"github.com/emrekoc/butika-backend/internal/modules/order"
	"github.com/emrekoc/butika-backend/internal/modules/payment"
	"github.com/emrekoc/butika-backend/internal/modules/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Infrastructure ──────────────────────────────────────
	media, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}
	gateway := payment.NewCheckoutFormGateway(cfg.Payment)
	mailer := notification.NewSMTPMailer(cfg.SMTP)

	// ── Admin auth ──────────────────────────────────────────
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, cfg.Auth.JWTSecret)
	if err := authService.SeedAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, "System Administrator"); err != nil {
		log.Fatal(err)
	}
	auth.NewHandler(authService).RegisterRoutes(router)
	adminOnly := auth.Middleware(cfg.Auth.JWTSecret)

	// ── Catalog ─────────────────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, media)
	catalog.NewHandler(catalogService).RegisterRoutes(router, adminOnly)

	// ── Orders & Payments ───────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, catalogService, gateway, mailer, cfg.Server.ClientURL)
	order.NewHandler(orderService, cfg.Server.ClientURL).RegisterRoutes(router, adminOnly)

	// ── Start Server ────────────────────────────────────────
	fmt.Printf("Butika API server starting on :%s\n", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, router))
}
