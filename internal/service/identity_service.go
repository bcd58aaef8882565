package service

import (
	"context"
	"strings"
	"time"

	"faceblog/internal/cache"
	"faceblog/internal/mail"
	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/observability"
	"faceblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const welcomeMailTimeout = 30 * time.Second

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Bio         string
	SocialLinks string
}

// ProfileInput is a validated profile edit.
type ProfileInput struct {
	Bio         string
	SocialLinks string
}

// Profile is a user together with their posts and follow counts.
type Profile struct {
	User      *models.User   `json:"user"`
	Posts     []*models.Post `json:"posts"`
	Followers int64          `json:"followers"`
	Following int64          `json:"following"`
}

// IdentityService registers, authenticates and describes users.
type IdentityService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	social *SocialGraphService
	cache  *cache.Store
	mailer mail.Mailer
	cost   int
}

// NewIdentityService returns a new IdentityService.
func NewIdentityService(
	users repository.UserRepository,
	posts repository.PostRepository,
	social *SocialGraphService,
	store *cache.Store,
	mailer mail.Mailer,
) *IdentityService {
	return &IdentityService{
		users:  users,
		posts:  posts,
		social: social,
		cache:  store,
		mailer: mailer,
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates an account and sends the welcome email in the background.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "IdentityService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewFieldValidationError(map[string]string{"email": MsgDuplicateEmail})
	}
	taken, err = s.users.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewFieldValidationError(map[string]string{"username": MsgDuplicateUsername})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		ImageFile:   models.DefaultImageFile,
		Bio:         in.Bio,
		SocialLinks: in.SocialLinks,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if models.IsCode(err, models.CodeConflict) {
			return nil, s.registrationConflict(ctx, email, username)
		}
		return nil, err
	}

	s.sendWelcome(ctx, user)
	return user, nil
}

// registrationConflict names the field a concurrent registration claimed
// first, checking in the same order as the pre-insert checks.
func (s *IdentityService) registrationConflict(ctx context.Context, email, username string) error {
	if taken, err := s.users.EmailTaken(ctx, email); err == nil && taken {
		return models.NewFieldValidationError(map[string]string{"email": MsgDuplicateEmail})
	}
	if taken, err := s.users.UsernameTaken(ctx, username); err == nil && taken {
		return models.NewFieldValidationError(map[string]string{"username": MsgDuplicateUsername})
	}
	return models.NewFieldValidationError(map[string]string{"email": MsgDuplicateEmail})
}

func (s *IdentityService) sendWelcome(ctx context.Context, user *models.User) {
	if s.mailer == nil {
		return
	}
	msg := mail.WelcomeMessage(user.Email, user.Username)
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeMailTimeout)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			observability.EmailDeliveries.WithLabelValues("failed").Inc()
			middleware.Logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "error", err)
			return
		}
		observability.EmailDeliveries.WithLabelValues("sent").Inc()
	}()
}

// Authenticate checks credentials. Every mismatch yields the same message.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(MsgLoginUnsuccessful)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(MsgLoginUnsuccessful)
	}
	return user, nil
}

// GetUser returns a user by id through the cache.
func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		found, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile loads a user by username with their posts and follow counts.
func (s *IdentityService) GetProfile(ctx context.Context, username string) (profile *Profile, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "IdentityService", "GetProfile",
		attribute.String("profile.username", username))
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

// GetProfileByID is GetProfile keyed by id.
func (s *IdentityService) GetProfileByID(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

func (s *IdentityService) buildProfile(ctx context.Context, user *models.User) (*Profile, error) {
	posts, err := s.posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.social.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		User:      user,
		Posts:     posts,
		Followers: counts.Followers,
		Following: counts.Following,
	}, nil
}

// UpdateProfile edits the bio and social links of username. Only the owner
// may edit; anyone else gets a soft rejection.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor Actor, username string, in ProfileInput) (*models.User, Outcome, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, Outcome{}, err
	}
	if user.ID != actor.ID {
		return user, rejected(WarnEditOtherProfile), nil
	}

	if err := s.users.UpdateProfile(ctx, user.ID, in.Bio, in.SocialLinks); err != nil {
		return nil, Outcome{}, err
	}
	s.cache.Invalidate(ctx, cache.UserKey(user.ID))

	user.Bio = in.Bio
	user.SocialLinks = in.SocialLinks
	return user, Outcome{Changed: true}, nil
}
