package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	repository.UserRepository
	user   *model.User
	tokens map[string]model.RefreshToken
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.ID.String() == id {
		u := *s.user
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	s.tokens[token.Token] = *token
	return nil
}

func (s *stubUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	stored, ok := s.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &stored, nil
}

func (s *stubUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func refreshFixture(expiresAt time.Time) (*stubUserRepo, string) {
	user := &model.User{ID: uuid.New(), Username: "admin", Role: "admin"}
	token := uuid.NewString()
	repo := &stubUserRepo{
		user: user,
		tokens: map[string]model.RefreshToken{
			token: {UserID: user.ID, Token: token, ExpiresAt: expiresAt},
		},
	}
	return repo, token
}

func TestRefreshTokenRotates(t *testing.T) {
	repo, token := refreshFixture(time.Now().Add(time.Hour))
	svc := NewUserService(repo)

	res, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: token})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEqual(t, token, res.RefreshToken)

	_, stillThere := repo.tokens[token]
	assert.False(t, stillThere, "presented refresh token must be consumed")
	_, rotated := repo.tokens[res.RefreshToken]
	assert.True(t, rotated)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo, token := refreshFixture(time.Now().Add(-time.Minute))
	svc := NewUserService(repo)

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: token})
	require.EqualError(t, err, "refresh token expired")

	_, stillThere := repo.tokens[token]
	assert.False(t, stillThere, "expired token must be removed")
}

func TestRefreshTokenUnknown(t *testing.T) {
	repo, _ := refreshFixture(time.Now().Add(time.Hour))
	svc := NewUserService(repo)

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: uuid.NewString()})
	require.EqualError(t, err, "invalid refresh token")
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	repo, token := refreshFixture(time.Now().Add(time.Hour))
	svc := NewUserService(repo)

	require.NoError(t, svc.Logout(context.Background(), token))
	assert.Empty(t, repo.tokens)

	// Missing cookie is not an error
	require.NoError(t, svc.Logout(context.Background(), ""))
}
