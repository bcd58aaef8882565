package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"faceblog/internal/database"
	"faceblog/internal/middleware"
	"faceblog/internal/models"

	"gorm.io/gorm"
)

// Options configures a seed run.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	MessagesPerRoom int
	DMsPerUser      int

	// MaxDays bounds how far back post dates are spread.
	MaxDays int
	// RandSeed makes a run reproducible when non-zero.
	RandSeed int64
	// FastHash hashes the shared password with bcrypt.MinCost.
	FastHash bool
	// ShouldClean deletes every existing row first.
	ShouldClean bool
	// DryRun builds records without writing them.
	DryRun bool
}

// DefaultOptions is a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		NumPosts:        60,
		CommentsPerPost: 3,
		FollowsPerUser:  5,
		MessagesPerRoom: 15,
		DMsPerUser:      2,
		MaxDays:         90,
	}
}

// Summary counts the rows a seed run created.
type Summary struct {
	Users          int
	Categories     int
	Posts          int
	Comments       int
	Follows        int
	ChatRooms      int
	RoomMessages   int
	DirectMessages int
}

// Seed applies the fixtures and fills the database with fake activity.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log := middleware.Logger
	log.Info("seeding database", "users", opts.NumUsers, "posts", opts.NumPosts, "dry_run", opts.DryRun)

	if opts.ShouldClean && !opts.DryRun {
		if err := Clean(ctx, db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	f, err := NewFactory(db.WithContext(ctx), opts)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}

	var categories []models.Category
	var rooms []models.ChatRoom
	if !opts.DryRun {
		categories, rooms, err = DefaultFixtures().Apply(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
	}
	summary.Categories = len(categories)
	summary.ChatRooms = len(rooms)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		log.Info("seeding finished without users")
		return summary, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		var category *models.Category
		if len(categories) > 0 && f.faker.Number(0, 3) > 0 {
			category = &categories[f.faker.Number(0, len(categories)-1)]
		}
		post, err := f.CreatePost(Pick(f, users), category)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		summary.Posts++

		for j := 0; j < opts.CommentsPerPost; j++ {
			if _, err := f.CreateComment(Pick(f, users), post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	if len(users) > 1 {
		for _, follower := range users {
			for j := 0; j < opts.FollowsPerUser; j++ {
				followed := Pick(f, users)
				if followed.ID == follower.ID {
					continue
				}
				if err := f.Follow(follower, followed); err != nil {
					return nil, fmt.Errorf("follow: %w", err)
				}
			}
		}
		if !opts.DryRun {
			var follows int64
			if err := db.WithContext(ctx).Model(&models.Follow{}).Count(&follows).Error; err != nil {
				return nil, err
			}
			summary.Follows = int(follows)
		}
	}

	start := time.Now().Add(-24 * time.Hour)
	for i := range rooms {
		for j := 0; j < opts.MessagesPerRoom; j++ {
			at := start.Add(time.Duration(j) * time.Minute)
			if _, err := f.CreateRoomMessage(&rooms[i], Pick(f, users), at); err != nil {
				return nil, fmt.Errorf("create room message: %w", err)
			}
			summary.RoomMessages++
		}
	}

	if len(users) > 1 {
		n := 0
		for _, sender := range users {
			for j := 0; j < opts.DMsPerUser; j++ {
				recipient := Pick(f, users)
				if recipient.ID == sender.ID {
					continue
				}
				at := start.Add(time.Duration(n) * time.Second)
				if _, err := f.CreateDirectMessage(sender, recipient, at); err != nil {
					return nil, fmt.Errorf("create direct message: %w", err)
				}
				n++
			}
		}
		summary.DirectMessages = n
	}

	log.Info("seeding complete",
		"users", summary.Users,
		"posts", summary.Posts,
		"comments", summary.Comments,
		"follows", summary.Follows,
		"room_messages", summary.RoomMessages,
		"direct_messages", summary.DirectMessages,
	)
	return summary, nil
}

// Clean deletes every row of every schema-managed table, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Warn("clearing existing data")
	tables := database.PersistentModels()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errs []error
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
