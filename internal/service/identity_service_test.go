package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"faceblog/internal/mail"
	"faceblog/internal/models"
	"faceblog/internal/observability"
	"faceblog/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *capturingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type failingMailer struct {
	attempts atomic.Int32
}

func (m *failingMailer) Send(context.Context, mail.Message) error {
	m.attempts.Add(1)
	return errors.New("relay unavailable")
}

// racingUsers hides rows from the pre-insert checks so Create hits the
// unique constraint, as when another registration commits in between.
type racingUsers struct {
	repository.UserRepository
	usernameChecks atomic.Int32
}

func (r *racingUsers) EmailTaken(context.Context, string) (bool, error) {
	return false, nil
}

func (r *racingUsers) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if r.usernameChecks.Add(1) == 1 {
		return false, nil
	}
	return r.UserRepository.UsernameTaken(ctx, username)
}

func newIdentity(env *testEnv, mailer mail.Mailer) *IdentityService {
	s := NewIdentityService(env.users, env.posts, env.social, env.store, mailer)
	s.cost = bcrypt.MinCost
	return s
}

func TestIdentityService_RegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	mailer := &capturingMailer{}
	s := newIdentity(env, mailer)
	ctx := context.Background()

	user, err := s.Register(ctx, RegisterInput{Username: "nina", Email: " nina@example.com ", Password: "hunter22x"})
	require.NoError(t, err)
	assert.Equal(t, "nina@example.com", user.Email)
	assert.Equal(t, models.DefaultImageFile, user.ImageFile)
	assert.NotEqual(t, "hunter22x", user.Password)

	assert.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 10*time.Millisecond)

	got, err := s.Authenticate(ctx, "nina@example.com", "hunter22x")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestIdentityService_LoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	s := newIdentity(env, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Username: "nina", Email: "nina@example.com", Password: "hunter22x"})
	require.NoError(t, err)

	_, wrongPassword := s.Authenticate(ctx, "nina@example.com", "wrong-pass1")
	_, unknownEmail := s.Authenticate(ctx, "nobody@example.com", "hunter22x")
	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.True(t, models.IsCode(err, models.CodeUnauthorized))
		assert.Equal(t, MsgLoginUnsuccessful, err.Error())
	}
}

func TestIdentityService_DuplicateRegistration(t *testing.T) {
	env := newTestEnv(t)
	s := newIdentity(env, nil)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Username: "nina", Email: "nina@example.com", Password: "hunter22x"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
		msg   string
	}{
		{"same email", RegisterInput{Username: "other", Email: "nina@example.com", Password: "hunter22x"}, "email", MsgDuplicateEmail},
		{"same username", RegisterInput{Username: "nina", Email: "fresh@example.com", Password: "hunter22x"}, "username", MsgDuplicateUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.in)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.msg, appErr.Fields[tt.field])
		})
	}
}

func TestIdentityService_MailFailureKeepsAccount(t *testing.T) {
	env := newTestEnv(t)
	mailer := &failingMailer{}
	s := newIdentity(env, mailer)
	ctx := context.Background()
	failed := observability.EmailDeliveries.WithLabelValues("failed")
	before := testutil.ToFloat64(failed)

	user, err := s.Register(ctx, RegisterInput{Username: "omar", Email: "omar@example.com", Password: "hunter22x"})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Eventually(t, func() bool { return mailer.attempts.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(failed) == before+1 }, time.Second, 10*time.Millisecond)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "omar", stored.Username)

	_, err = s.Authenticate(ctx, "omar@example.com", "hunter22x")
	assert.NoError(t, err)
}

func TestIdentityService_RegistrationRaceNamesField(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
		msg   string
	}{
		{"username", RegisterInput{Username: "nina", Email: "fresh@example.com", Password: "hunter22x"}, "username", MsgDuplicateUsername},
		{"email", RegisterInput{Username: "other", Email: "nina@example.com", Password: "hunter22x"}, "email", MsgDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			_, err := newIdentity(env, nil).Register(ctx, RegisterInput{Username: "nina", Email: "nina@example.com", Password: "hunter22x"})
			require.NoError(t, err)

			s := NewIdentityService(&racingUsers{UserRepository: env.users}, env.posts, env.social, env.store, nil)
			s.cost = bcrypt.MinCost

			_, err = s.Register(ctx, tt.in)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.msg, appErr.Fields[tt.field])
			assert.Len(t, appErr.Fields, 1)
		})
	}
}

func TestIdentityService_ProfileEditing(t *testing.T) {
	env := newTestEnv(t)
	s := newIdentity(env, nil)
	ctx := context.Background()
	owner, other := env.actor(t, "olga"), env.actor(t, "pete")

	_, outcome, err := s.UpdateProfile(ctx, other, "olga", ProfileInput{Bio: "hacked"})
	require.NoError(t, err)
	assert.Equal(t, WarnEditOtherProfile, outcome.Warning)

	user, outcome, err := s.UpdateProfile(ctx, owner, "olga", ProfileInput{Bio: "hello", SocialLinks: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, "hello", user.Bio)

	_, _, err = env.social.Follow(ctx, other.ID, owner.ID)
	require.NoError(t, err)

	profile, err := s.GetProfile(ctx, "olga")
	require.NoError(t, err)
	assert.Equal(t, "hello", profile.User.Bio)
	assert.Equal(t, int64(1), profile.Followers)
	assert.Equal(t, int64(0), profile.Following)

	_, err = s.GetProfile(ctx, "ghost")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
