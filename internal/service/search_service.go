package service

import (
	"context"
	"strings"

	"faceblog/internal/models"
	"faceblog/internal/observability"
	"faceblog/internal/repository"

	"golang.org/x/sync/errgroup"
)

const searchResultLimit = 50

// SearchResults groups matches by entity.
type SearchResults struct {
	Query     string            `json:"query"`
	Posts     []*models.Post    `json:"posts"`
	Users     []models.User     `json:"users"`
	ChatRooms []models.ChatRoom `json:"chatrooms"`
}

// SearchService runs substring search over posts, users and rooms.
type SearchService struct {
	posts repository.PostRepository
	users repository.UserRepository
	rooms repository.RoomRepository
}

// NewSearchService returns a new SearchService.
func NewSearchService(posts repository.PostRepository, users repository.UserRepository, rooms repository.RoomRepository) *SearchService {
	return &SearchService{posts: posts, users: users, rooms: rooms}
}

// Search matches query case-insensitively. The three lookups run
// concurrently; an empty query matches nothing.
func (s *SearchService) Search(ctx context.Context, query string) (res *SearchResults, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "SearchService", "Search")
	defer func() { observability.EndSpan(span, err) }()

	query = strings.TrimSpace(query)
	res = &SearchResults{
		Query:     query,
		Posts:     []*models.Post{},
		Users:     []models.User{},
		ChatRooms: []models.ChatRoom{},
	}
	if query == "" {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := s.posts.Search(gctx, query, searchResultLimit)
		if err == nil {
			res.Posts = posts
		}
		return err
	})
	g.Go(func() error {
		users, err := s.users.Search(gctx, query, searchResultLimit)
		if err == nil {
			res.Users = users
		}
		return err
	})
	g.Go(func() error {
		rooms, err := s.rooms.Search(gctx, query, searchResultLimit)
		if err == nil {
			res.ChatRooms = rooms
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
