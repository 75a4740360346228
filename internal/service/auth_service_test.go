package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[string]*models.User

	lastLoginID string
	newHash     string
	created     *models.User
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.created = user
	return nil
}

func (f *fakeUserRepo) Count(context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	f.lastLoginID = id
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, _ string, hash string, _ time.Time) error {
	f.newHash = hash
	return nil
}

func newAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, validator.New(), zap.NewNop(), config.JWTConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
	})
}

func seedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "user-1", Username: "alice", PasswordHash: string(hash)}
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"user-1": seedUser(t, "correct horse")}}
	svc := newAuthService(t, repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "user-1", repo.lastLoginID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"user-1": seedUser(t, "correct horse")}}
	svc := newAuthService(t, repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc := newAuthService(t, &fakeUserRepo{users: map[string]*models.User{}})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "mallory", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"user-1": seedUser(t, "correct horse")}}
	svc := newAuthService(t, repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"user-1": seedUser(t, "correct horse")}}
	svc := newAuthService(t, repo)

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "longenough",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.newHash)

	err = svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "correct horse",
		NewPassword:     "longenough",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.newHash)
}

func TestEnsureAdminBootstrapsEmptyTable(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{}}
	svc := newAuthService(t, repo)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "bootstrap-pass"))
	require.NotNil(t, repo.created)
	assert.Equal(t, "admin", repo.created.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("bootstrap-pass")))
}

func TestEnsureAdminSkipsExistingUsers(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{"user-1": seedUser(t, "x")}}
	svc := newAuthService(t, repo)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "bootstrap-pass"))
	assert.Nil(t, repo.created)
}
