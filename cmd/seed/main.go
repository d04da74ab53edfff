// Command seed fills the database with fake users, groups and posts.
package main

import (
	"context"
	"flag"
	"log"

	"yatube/internal/bootstrap"
	"yatube/internal/config"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numGroups := flag.Int("groups", 4, "Number of groups to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Delete all users, groups and posts before seeding")
	password := flag.String("password", seed.DefaultPassword, "Password for every seeded user")
	flag.Parse()

	log.Printf("Target: %d users, %d groups, %d posts, clean=%v", *numUsers, *numGroups, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer bootstrap.Close(db)

	s := seed.NewSeeder(db, seed.Options{
		Users:    *numUsers,
		Groups:   *numGroups,
		Posts:    *numPosts,
		Clean:    *shouldClean,
		Password: *password,
	})
	result, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d groups, %d posts", result.Users, result.Groups, result.Posts)
	log.Printf("All seeded users have the password: %s", *password)
}
