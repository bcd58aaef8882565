// Package seed creates demo data for development databases and tests.
package seed

import (
	"fmt"
	"strings"
	"time"

	"faceblog/internal/middleware"
	"faceblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

const maxUsernameLen = 20

// Factory builds domain records with fake content and persists them.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	passwordHash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed picks a
// time-based seed.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:           db,
		opts:         opts,
		faker:        gofakeit.New(seed),
		passwordHash: string(hash),
		nextID:       1000,
	}, nil
}

// pastTime returns a random instant within the configured MaxDays.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	minutesBack := f.faker.Number(0, maxDays*24*60)
	return time.Now().Add(-time.Duration(minutesBack) * time.Minute).Truncate(time.Second)
}

func (f *Factory) create(value any, assignID func(uint)) error {
	if f.opts.DryRun {
		f.nextID++
		assignID(f.nextID)
		return nil
	}
	return f.db.Create(value).Error
}

// username is lower-case, unique within this factory and at most
// maxUsernameLen characters.
func (f *Factory) username() string {
	f.seq++
	suffix := fmt.Sprintf("%d", f.seq)
	base := strings.ToLower(f.faker.FirstName())
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "user"
	}
	if limit := maxUsernameLen - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

// CreateUser persists a fake account whose password is DefaultPassword.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := f.username()
	user := &models.User{
		Username:  name,
		Email:     name + "@example.com",
		Password:  f.passwordHash,
		ImageFile: models.DefaultImageFile,
		Bio:       f.faker.Sentence(10),
	}
	if f.faker.Bool() {
		user.SocialLinks = "https://github.com/" + name
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.create(user, func(id uint) { user.ID = id }); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a fake post by author, optionally in a category.
func (f *Factory) CreatePost(author *models.User, category *models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
	if len(title) > 100 {
		title = title[:100]
	}
	post := &models.Post{
		Title:      title,
		Content:    f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
		UserID:     author.ID,
		DatePosted: f.pastTime(),
	}
	if category != nil {
		post.CategoryID = &category.ID
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.create(post, func(id uint) { post.ID = id }); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a fake comment with a random signed like count.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content:    f.faker.Sentence(f.faker.Number(4, 20)),
		PostID:     post.ID,
		UserID:     author.ID,
		Likes:      f.faker.Number(-3, 25),
		DatePosted: post.DatePosted.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.create(comment, func(id uint) { comment.ID = id }); err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow records that follower follows followed. Existing edges and
// self-follows are skipped.
func (f *Factory) Follow(follower, followed *models.User) error {
	if follower.ID == followed.ID || f.opts.DryRun {
		return nil
	}
	edge := models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	return f.db.Where(edge).FirstOrCreate(&edge).Error
}

// CreateRoomMessage appends a fake message to room at the given time.
func (f *Factory) CreateRoomMessage(room *models.ChatRoom, author *models.User, at time.Time) (*models.RoomMessage, error) {
	msg := &models.RoomMessage{
		Content:    f.faker.HipsterSentence(f.faker.Number(3, 12)),
		UserID:     author.ID,
		ChatRoomID: room.ID,
		Timestamp:  at,
	}
	if err := f.create(msg, func(id uint) { msg.ID = id }); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateDirectMessage persists a fake private message from sender to recipient.
func (f *Factory) CreateDirectMessage(sender, recipient *models.User, at time.Time) (*models.DirectMessage, error) {
	if sender.ID == recipient.ID {
		return nil, fmt.Errorf("seed: direct message to self (user %d)", sender.ID)
	}
	content := f.faker.Sentence(f.faker.Number(3, 15))
	if len(content) > models.MaxDirectMessageLength {
		content = content[:models.MaxDirectMessageLength]
	}
	msg := &models.DirectMessage{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
		Timestamp:   at,
	}
	if err := f.create(msg, func(id uint) { msg.ID = id }); err != nil {
		return nil, err
	}
	middleware.Logger.Debug("seeded direct message", "sender_id", sender.ID, "recipient_id", recipient.ID)
	return msg, nil
}

// Pick returns a random element of items.
func Pick[T any](f *Factory, items []T) T {
	return items[f.faker.Number(0, len(items)-1)]
}
