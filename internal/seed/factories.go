package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"factvault/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the shared password for generated users.
const SeedPassword = "password123"

var factCategories = []string{
	"animals", "science", "history", "food", "nature", "language",
	"space", "geography", "technology", "sports",
}

// Seeder populates the database with synthetic users, facts and favorites
// for development and load testing.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder returns a seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes all rows in dependency order.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []any{
		&models.ApiUsage{},
		&models.Favorite{},
		&models.Fact{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// SeedUsers creates count users with generated identities. Every user gets
// the same known password so generated accounts are usable in manual tests.
func (s *Seeder) SeedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	seen := make(map[string]bool, count)
	for len(users) < count {
		username := strings.ToLower(gofakeit.Username())
		if len(username) < 3 || seen[username] {
			continue
		}
		seen[username] = true

		users = append(users, models.User{
			Username:     username,
			Email:        fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
			PasswordHash: string(hash),
			IsActive:     gofakeit.Number(0, 9) > 0, // roughly 10% deactivated
		})
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("seeding users: %w", err)
	}
	log.Printf("Created %d users", len(users))
	return users, nil
}

// SeedFacts creates count synthetic facts spread over the stock categories,
// with view counts skewed so listings look lived-in.
func (s *Seeder) SeedFacts(count int) ([]models.Fact, error) {
	facts := make([]models.Fact, 0, count)
	for i := 0; i < count; i++ {
		facts = append(facts, models.Fact{
			Content:   gofakeit.Sentence(gofakeit.Number(8, 24)),
			Category:  factCategories[rand.Intn(len(factCategories))],
			IsActive:  gofakeit.Number(0, 19) > 0, // roughly 5% retired
			ViewCount: int64(gofakeit.Number(0, 5000)),
		})
	}

	if err := s.db.CreateInBatches(&facts, 100).Error; err != nil {
		return nil, fmt.Errorf("seeding facts: %w", err)
	}
	log.Printf("Created %d facts", len(facts))
	return facts, nil
}

// SeedFavorites bookmarks a random subset of facts for each user, at most
// perUser apiece. The unique pair index makes repeats impossible, so picks
// are deduplicated up front.
func (s *Seeder) SeedFavorites(users []models.User, facts []models.Fact, perUser int) (int, error) {
	if len(facts) == 0 {
		return 0, nil
	}

	var favorites []models.Favorite
	for _, user := range users {
		picked := make(map[uint]bool)
		for i := 0; i < gofakeit.Number(0, perUser); i++ {
			fact := facts[rand.Intn(len(facts))]
			if picked[fact.ID] {
				continue
			}
			picked[fact.ID] = true
			favorites = append(favorites, models.Favorite{
				UserID: user.ID,
				FactID: fact.ID,
			})
		}
	}

	if len(favorites) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&favorites, 200).Error; err != nil {
		return 0, fmt.Errorf("seeding favorites: %w", err)
	}
	log.Printf("Created %d favorites", len(favorites))
	return len(favorites), nil
}
