// Command seed fills a development database with fake users and posts.
package main

import (
	"context"
	"flag"
	"log"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/repository"
	"postboard/internal/seed"
	"postboard/internal/service"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Delete existing users and posts first")
	randSeed := flag.Int64("seed", 0, "Faker seed (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	c, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	if *shouldClean {
		if err := seed.Clear(ctx, db, c); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	uow := repository.NewUnitOfWork(db)
	posts := service.NewPostService(uow)
	s := seed.NewSeeder(service.NewUserService(uow, c), posts, *randSeed)

	users, err := s.SeedUsers(ctx, *numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	if *numPosts > 0 {
		if _, err := s.SeedPosts(ctx, users, *numPosts); err != nil {
			log.Fatalf("Post seeding failed: %v", err)
		}
	}

	total, err := posts.CountPosts(ctx)
	if err != nil {
		log.Fatalf("Counting posts failed: %v", err)
	}
	log.Printf("Seeded %d users and %d posts (%d posts in database)", len(users), *numPosts, total)
}
