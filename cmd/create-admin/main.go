package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/core/service"
	mongodb "github.com/akhbar-news/backoffice/internal/infrastructure/db/mongo"
	"github.com/akhbar-news/backoffice/internal/infrastructure/db/postgres"
	"github.com/akhbar-news/backoffice/internal/pkg/config"
	"github.com/akhbar-news/backoffice/pkg/logger"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "create-admin"})

	ctx := context.Background()

	// ─── Connect to the identity store ─────────────────────────────────
	var repo ports.UserRepository
	switch cfg.Store.Backend {
	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			AppName:  "backoffice-create-admin",
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() { _ = client.Disconnect(ctx) }()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to create indexes")
		}
		repo = mongodb.NewUserRepository(db)
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: 2})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}
		repo = postgres.NewUserRepository(pool)
	default:
		fmt.Println("Error: STORE_BACKEND must be mongo or postgres; the memory store does not outlive this command")
		os.Exit(1)
	}

	userService := service.NewUserService(repo, cfg.Auth.BcryptCost, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Super Admin ===")

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		os.Exit(1)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	fmt.Print("Confirm Password: ")
	byteConfirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	if string(bytePassword) != string(byteConfirm) {
		fmt.Println("Error: Passwords do not match")
		os.Exit(1)
	}

	// ─── Create ────────────────────────────────────────────────────────
	created, err := userService.EnsureSuperAdmin(ctx, email, string(bytePassword))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create super admin (passwords need at least 8 characters)")
	}
	if !created {
		fmt.Printf("\nAn account with email %s already exists; nothing changed.\n", email)
		return
	}

	fmt.Printf("\nSuccess! Super admin %s created.\n", email)
}
