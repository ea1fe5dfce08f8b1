// Package main provides admin management utilities for Cidade em Foco.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/bootstrap"
	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/repository"
	"cidadeemfoco/internal/service"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <email>    - Demote admin to ordinary user")
	fmt.Println("  go run ./cmd/admin list-admins       - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipMedia: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer rt.Close()

	codec, err := auth.NewCodec(cfg.JWTSecret, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		log.Fatalf("Failed to create token codec: %v", err)
	}
	users := service.NewUserService(repository.NewUserRepository(rt.DB), codec,
		service.UserServiceConfig{BcryptCost: cfg.BcryptCost})

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		level := models.LevelAdmin
		if command == "demote" {
			level = models.LevelOrdinary
		}
		setLevel(ctx, users, os.Args[2], level)

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func setLevel(ctx context.Context, users *service.UserService, email string, level models.Level) {
	user, err := users.SetLevelByEmail(ctx, email, level)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			fmt.Printf("User with email %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Failed to change level: %v", err)
	}

	fmt.Printf("✅ %s (ID: %d) now has level %d\n", user.Name, user.ID, user.Level)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	all, err := users.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	found := 0
	for _, u := range all {
		if !u.Level.IsAdmin() {
			continue
		}
		found++
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", u.ID, u.Name, u.Email)
	}
	if found == 0 {
		fmt.Println("No admins found in the system")
	}
	fmt.Println("─────────────────────────────────────")
}
