// Package seed provides database seeding utilities for development and testing.
package seed

import (
	_ "embed"
	"fmt"

	"factvault/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed facts.yaml
var factsYAML []byte

type factEntry struct {
	Content  string `yaml:"content"`
	Category string `yaml:"category"`
}

type factFile struct {
	Facts []factEntry `yaml:"facts"`
}

// StarterFacts parses the bundled fact catalog.
func StarterFacts() ([]models.Fact, error) {
	var file factFile
	if err := yaml.Unmarshal(factsYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing bundled facts: %w", err)
	}

	facts := make([]models.Fact, 0, len(file.Facts))
	for _, entry := range file.Facts {
		facts = append(facts, models.Fact{
			Content:  entry.Content,
			Category: entry.Category,
			IsActive: true,
		})
	}
	return facts, nil
}

// Facts inserts the bundled fact catalog when the facts table is empty.
// A non-empty table means an operator or a previous boot already seeded,
// so the call is a no-op.
func Facts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Fact{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting facts: %w", err)
	}
	if count > 0 {
		return nil
	}

	facts, err := StarterFacts()
	if err != nil {
		return err
	}

	if err := db.Create(&facts).Error; err != nil {
		return fmt.Errorf("inserting starter facts: %w", err)
	}
	return nil
}
