package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"faceblog/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// CategoryFixture is one entry of the categories list.
type CategoryFixture struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// Fixtures is the reference data every environment starts with.
type Fixtures struct {
	Categories []CategoryFixture `yaml:"categories"`
	ChatRooms  []string          `yaml:"chatrooms"`
}

// LoadFixtures parses a fixtures document.
func LoadFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
	}
	return &f, nil
}

// DefaultFixtures returns the embedded fixtures.
func DefaultFixtures() *Fixtures {
	f, err := LoadFixtures(defaultFixtures)
	if err != nil {
		panic(err)
	}
	return f
}

// Apply creates the categories and rooms that do not exist yet and returns
// all of them.
func (f *Fixtures) Apply(ctx context.Context, db *gorm.DB) ([]models.Category, []models.ChatRoom, error) {
	categories := make([]models.Category, 0, len(f.Categories))
	rooms := make([]models.ChatRoom, 0, len(f.ChatRooms))

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range f.Categories {
			var category models.Category
			if err := firstOrCreate(tx, &category, "name = ?", c.Name, &models.Category{Name: c.Name}); err != nil {
				return fmt.Errorf("category %s: %w", c.Key, err)
			}
			categories = append(categories, category)
		}
		for _, name := range f.ChatRooms {
			var room models.ChatRoom
			if err := firstOrCreate(tx, &room, "name = ?", name, &models.ChatRoom{Name: name}); err != nil {
				return fmt.Errorf("chat room %s: %w", name, err)
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return categories, rooms, nil
}

// firstOrCreate loads the first row matching query into dst, or inserts
// fresh and copies it into dst. Names are not unique columns, so a plain
// ON CONFLICT upsert cannot be used.
func firstOrCreate[T any](tx *gorm.DB, dst *T, query string, arg any, fresh *T) error {
	err := tx.Where(query, arg).Order("id ASC").First(dst).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := tx.Create(fresh).Error; err != nil {
		return err
	}
	*dst = *fresh
	return nil
}
