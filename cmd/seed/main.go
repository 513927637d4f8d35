// Command main fills the Xchangez database with demo marketplace data.
package main

import (
	"flag"
	"log"

	"xchangez/internal/config"
	"xchangez/internal/database"
	"xchangez/internal/seed"
)

func main() {
	preset := flag.String("preset", "default", "seeding size: minimal, default or populated")
	numUsers := flag.Int("users", 0, "override the preset's number of users")
	numPosts := flag.Int("posts", 0, "override the preset's number of posts")
	shouldClean := flag.Bool("clean", true, "clean database before seeding")
	fast := flag.Bool("fast", false, "hash passwords with the minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "random seed for reproducible data (0 = time based)")
	flag.Parse()

	counts, ok := seed.Presets[*preset]
	if !ok {
		log.Fatalf("Unknown preset %q", *preset)
	}
	if *numUsers > 0 {
		counts.Users = *numUsers
	}
	if *numPosts > 0 {
		counts.Posts = *numPosts
	}

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", counts.Users, counts.Posts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{Seed: *randSeed, SkipBcrypt: *fast})
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Seed(counts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done: %s", sum)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
