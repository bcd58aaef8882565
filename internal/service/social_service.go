package service

import (
	"context"

	"faceblog/internal/cache"
	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/observability"
	"faceblog/internal/repository"
)

// FollowCounts summarises both sides of a user's follow edges.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// SocialGraphService manages directed follow edges. All mutations are
// idempotent and commit immediately.
type SocialGraphService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	cache   *cache.Store
}

// NewSocialGraphService returns a new SocialGraphService.
func NewSocialGraphService(follows repository.FollowRepository, users repository.UserRepository, store *cache.Store) *SocialGraphService {
	return &SocialGraphService{follows: follows, users: users, cache: store}
}

// Follow makes actor follow target. Following oneself is softly refused and
// following twice is a no-op. An unknown target is NOT_FOUND.
func (s *SocialGraphService) Follow(ctx context.Context, actorID, targetID uint) (*models.User, Outcome, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if actorID == targetID {
		observability.FollowOperations.WithLabelValues("follow", "self").Inc()
		middleware.Logger.WarnContext(ctx, "self-follow rejected", "user_id", actorID)
		return target, rejected(WarnSelfFollow), nil
	}

	created, err := s.follows.Create(ctx, actorID, targetID)
	if err != nil {
		return nil, Outcome{}, err
	}
	s.recordChange(ctx, "follow", created, actorID, targetID)
	return target, Outcome{Changed: created}, nil
}

// Unfollow removes the edge if present. Removing a missing edge is a no-op.
func (s *SocialGraphService) Unfollow(ctx context.Context, actorID, targetID uint) (*models.User, Outcome, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if actorID == targetID {
		return target, Outcome{}, nil
	}

	removed, err := s.follows.Delete(ctx, actorID, targetID)
	if err != nil {
		return nil, Outcome{}, err
	}
	s.recordChange(ctx, "unfollow", removed, actorID, targetID)
	return target, Outcome{Changed: removed}, nil
}

func (s *SocialGraphService) recordChange(ctx context.Context, op string, changed bool, actorID, targetID uint) {
	outcome := "noop"
	if changed {
		outcome = "changed"
		s.cache.Invalidate(ctx, cache.FollowingCountKey(actorID), cache.FollowerCountKey(targetID))
	}
	observability.FollowOperations.WithLabelValues(op, outcome).Inc()
}

// IsFollowing is a membership test on the edge set.
func (s *SocialGraphService) IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error) {
	if actorID == 0 || actorID == targetID {
		return false, nil
	}
	return s.follows.Exists(ctx, actorID, targetID)
}

// Followers lists who follows userID.
func (s *SocialGraphService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowers(ctx, userID)
}

// Following lists who userID follows.
func (s *SocialGraphService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowing(ctx, userID)
}

// Counts returns cached follower and following totals.
func (s *SocialGraphService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var counts FollowCounts
	err := s.cache.Aside(ctx, cache.FollowerCountKey(userID), &counts.Followers, cache.FollowCountTTL, func() error {
		n, err := s.follows.CountFollowers(ctx, userID)
		counts.Followers = n
		return err
	})
	if err != nil {
		return FollowCounts{}, err
	}
	err = s.cache.Aside(ctx, cache.FollowingCountKey(userID), &counts.Following, cache.FollowCountTTL, func() error {
		n, err := s.follows.CountFollowing(ctx, userID)
		counts.Following = n
		return err
	})
	if err != nil {
		return FollowCounts{}, err
	}
	return counts, nil
}
