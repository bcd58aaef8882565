// Command seed fills a development database with fake FaceBlog activity.
package main

import (
	"context"
	"flag"
	"log"

	"faceblog/internal/config"
	"faceblog/internal/database"
	"faceblog/internal/middleware"
	"faceblog/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Follow attempts per user")
	roomMessages := flag.Int("room-messages", defaults.MessagesPerRoom, "Messages per chat room")
	dms := flag.Int("dms", defaults.DMsPerUser, "Direct messages sent per user")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Delete existing rows before seeding")
	dryRun := flag.Bool("dry-run", false, "Build records without writing them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	summary, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		MessagesPerRoom: *roomMessages,
		DMsPerUser:      *dms,
		MaxDays:         defaults.MaxDays,
		RandSeed:        *randSeed,
		FastHash:        cfg.IsDevelopment(),
		ShouldClean:     *shouldClean,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d follows, %d room messages, %d direct messages",
		summary.Users, summary.Posts, summary.Comments, summary.Follows, summary.RoomMessages, summary.DirectMessages)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
