// Command main runs the database seeder for TutorHub.
package main

import (
	"flag"
	"log"

	"tutorhub/internal/config"
	"tutorhub/internal/database"
	"tutorhub/internal/seed"
)

func main() {
	numOwners := flag.Int("owners", 10, "Number of post owners to create")
	numCandidates := flag.Int("candidates", 30, "Number of candidates to create")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	numAds := flag.Int("ads", 6, "Number of demo ads to schedule")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Skip password hashing (fast, dev only)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d owners, %d candidates, %d posts, clean=%v\n",
		*numOwners, *numCandidates, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeederWithOptions(db, seed.Options{SkipBcrypt: *skipBcrypt})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	owners, candidates, err := s.SeedMarketplace(*numOwners, *numCandidates)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	posts, err := s.SeedPosts(owners, candidates, *numPosts)
	if err != nil {
		log.Fatalf("Post seeding failed: %v", err)
	}
	if err := s.SeedLifecycle(posts); err != nil {
		log.Fatalf("Lifecycle seeding failed: %v", err)
	}
	if err := s.SeedBilling(owners, *numAds); err != nil {
		log.Fatalf("Billing seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Println("All test users have the password: password123")
	log.Println("Admin login: admin@tutorhub.dev")
}
