package service

import (
	"context"
	"sync"
	"testing"

	"faceblog/internal/cache"
	"faceblog/internal/notifications"
	"faceblog/internal/repository"
	"faceblog/internal/testutil"

	"gorm.io/gorm"
)

type published struct {
	topic string
	event notifications.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Notify(_ context.Context, topic string, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, event: event})
	return p.err
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type testEnv struct {
	db        *gorm.DB
	publisher *recordingPublisher
	store     *cache.Store

	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository

	social  *SocialGraphService
	content *ContentService
	rooms   *RoomService
	dms     *DirectMessageService
	search  *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	pub := &recordingPublisher{}
	store := cache.NewStore(nil)

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	categories := repository.NewCategoryRepository(db)
	rooms := repository.NewRoomRepository(db)

	return &testEnv{
		db:        db,
		publisher: pub,
		store:     store,
		users:     users,
		posts:     posts,
		comments:  comments,
		social:    NewSocialGraphService(repository.NewFollowRepository(db), users, store),
		content:   NewContentService(posts, comments, categories),
		rooms:     NewRoomService(rooms, store, pub),
		dms:       NewDirectMessageService(repository.NewDirectMessageRepository(db), users, pub),
		search:    NewSearchService(posts, users, rooms),
	}
}

func (e *testEnv) actor(t *testing.T, username string) Actor {
	t.Helper()
	return ActorFrom(testutil.CreateUser(t, e.db, username))
}
