// Command main runs the database seeder for the facts API.
package main

import (
	"flag"
	"log"

	"factvault/internal/config"
	"factvault/internal/database"
	"factvault/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numFacts := flag.Int("facts", 500, "Number of synthetic facts to create")
	perUser := flag.Int("favorites", 10, "Maximum favorites per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d facts, up to %d favorites each, clean=%v\n",
		*numUsers, *numFacts, *perUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	// Starter catalog first so the curated facts always exist.
	if err := seed.Facts(db); err != nil {
		log.Fatalf("Starter fact seeding failed: %v", err)
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}

	facts, err := s.SeedFacts(*numFacts)
	if err != nil {
		log.Fatalf("Fact seeding failed: %v", err)
	}

	if _, err := s.SeedFavorites(users, facts, *perUser); err != nil {
		log.Fatalf("Favorite seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Printf("All generated users have the password: %s", seed.SeedPassword)
}
