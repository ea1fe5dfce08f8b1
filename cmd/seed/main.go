// Command main runs the database seeder for Cidade em Foco.
package main

import (
	"context"
	"flag"
	"log"

	"cidadeemfoco/internal/bootstrap"
	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	// Parse command line flags
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	maxLikes := flag.Int("max-likes", defaults.MaxLikesPerPost, "Maximum likes per post")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread post dates over the last N days")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = clock)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, SkipMedia: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer rt.Close()

	s := seed.NewSeeder(rt.DB, seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		MaxLikesPerPost: *maxLikes,
		MaxDays:         *maxDays,
		RandomSeed:      *randomSeed,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d likes.", summary.Users, summary.Posts, summary.Likes)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
