package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/models"
	"github.com/nxkoriyav/accountd/internal/repository"
)

// AuthService registers users and exchanges credentials for access tokens.
// The authenticated user is the owner for every account and ledger call, so
// the userId downstream operations see always comes from a verified token.
type AuthService struct {
	hasher   PasswordHasher
	tokens   *TokenManager
	userRepo repository.UserRepo
}

func NewService(hasher PasswordHasher, tokens *TokenManager, userRepo repository.UserRepo) *AuthService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &AuthService{
		hasher:   hasher,
		tokens:   tokens,
		userRepo: userRepo,
	}
}

func (s *AuthService) Register(ctx context.Context, username string, password string) (models.User, string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return user, "", fmt.Errorf("can't create user. Err: %w", err)
	}

	access, err := s.tokens.Generate(user.ID)
	if err != nil {
		return user, "", err
	}

	return user, access, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return user, "", fmt.Errorf("login failed. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		// Same error as unknown username, so login probing can't tell them apart
		return user, "", fmt.Errorf("login failed. Err: %w", apperrors.ErrUserNotFound)
	}

	access, err := s.tokens.Generate(user.ID)
	if err != nil {
		return user, "", err
	}

	return user, access, nil
}

// GetUserFromRequest authenticates the request by its bearer token
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return models.User{}, fmt.Errorf("no bearer token: %w", apperrors.ErrUserNotFound)
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, fmt.Errorf("bad access token: %w", err)
	}

	return s.userRepo.GetUserByID(ctx, userID)
}
