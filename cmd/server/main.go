package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-journal/internal/config"
	"github.com/iliyamo/travel-journal/internal/database"
	"github.com/iliyamo/travel-journal/internal/handler"
	"github.com/iliyamo/travel-journal/internal/journal"
	"github.com/iliyamo/travel-journal/internal/queue"
	"github.com/iliyamo/travel-journal/internal/repository"
	"github.com/iliyamo/travel-journal/internal/router"
	"github.com/iliyamo/travel-journal/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	pages := repository.NewJournalPageRepo(db)
	tickets := repository.NewTicketRepo(db, pages)

	// Seed the admin account (roles are plain strings; only this one row
	// ever gets ADMIN).
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		cancel()
	}

	attachments, err := storage.NewLocal(cfg.UploadDir, "/uploads")
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	engine := journal.NewEngine(tickets, pages, attachments)

	// Redis is optional: nil disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limit disabled")
	}

	// Background consumer writes journal.page_saved events to logs/.
	go func() {
		if err := queue.StartPageSavedConsumer(); err != nil {
			log.Printf("journal consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, cfg.UploadDir)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), rdb, cfg.JWTSecret)
	router.RegisterTickets(e, handler.NewTicketHandler(tickets), rdb, cfg.JWTSecret)
	router.RegisterJournal(e, handler.NewJournalHandler(engine, attachments), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
