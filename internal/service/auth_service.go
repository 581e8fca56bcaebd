package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/knowledge-base-api/internal/validation"
	"github.com/knowledge-base-api/pkg/token"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const denylistPrefix = "denylist:"

// authService implements AuthService
type authService struct {
	users      repository.UserRepository
	tokens     *token.Manager
	rdb        *redis.Client
	bcryptCost int
	log        zerolog.Logger
}

// NewAuthService creates the authentication service. A nil Redis client
// disables token revocation.
func NewAuthService(users repository.UserRepository, tokens *token.Manager, rdb *redis.Client, bcryptCost int, log zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		rdb:        rdb,
		bcryptCost: bcryptCost,
		log:        log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a new user account with the viewer role
func (s *authService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	if errs := validation.ValidateRegister(input); errs != nil {
		return nil, models.NewValidationError(errs)
	}

	taken, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, &models.StoreError{Op: "check email", Err: err}
	}
	if taken {
		return nil, models.NewValidationError(map[string]string{"email": "Email is already registered"})
	}

	if input.Username != "" {
		taken, err = s.users.UsernameExists(ctx, input.Username)
		if err != nil {
			return nil, &models.StoreError{Op: "check username", Err: err}
		}
		if taken {
			return nil, models.NewValidationError(map[string]string{"username": "Username is already taken"})
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, &models.StoreError{Op: "hash password", Err: err}
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(input.Email),
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         models.RoleViewer,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError(map[string]string{"email": "Email is already registered"})
		}
		return nil, &models.StoreError{Op: "create user", Err: err}
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a token pair
func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.User, *models.TokenPair, error) {
	if input.Identifier == "" || input.Password == "" {
		return nil, nil, models.NewValidationError(map[string]string{
			"credentials": "Identifier and password are required",
		})
	}

	user, err := s.users.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, nil, &models.StoreError{Op: "find user", Err: err}
	}
	if user == nil {
		return nil, nil, &models.UnauthorizedError{Message: "Invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, &models.UnauthorizedError{Message: "Invalid credentials"}
	}

	if !user.Active {
		return nil, nil, &models.UnauthorizedError{Message: "Account is disabled"}
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		// A failed stamp should not fail the login.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record login time")
	}

	s.log.Info().Str("user_id", user.ID).Msg("User logged in")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.tokens.VerifyToken(refreshToken)
	if err != nil {
		return nil, &models.UnauthorizedError{Message: "Invalid refresh token"}
	}
	if denied, err := s.isDenied(ctx, refreshToken); err != nil {
		return nil, err
	} else if denied {
		return nil, &models.UnauthorizedError{Message: "Token has been revoked"}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, &models.StoreError{Op: "get user", Err: err}
	}
	if user == nil || !user.Active {
		return nil, &models.UnauthorizedError{Message: "Account is disabled"}
	}

	return s.issueTokens(user)
}

// Logout revokes the access token for the rest of its lifetime. Without a
// denylist store tokens simply expire on their own.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.VerifyToken(accessToken)
	if err != nil {
		return &models.UnauthorizedError{Message: "Invalid token"}
	}

	if s.rdb == nil {
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	if err := s.rdb.Set(ctx, denylistPrefix+accessToken, "1", remaining).Err(); err != nil {
		return &models.StoreError{Op: "revoke token", Err: err}
	}

	s.log.Info().Str("user_id", claims.UserID).Msg("User logged out")
	return nil
}

// IdentityFromToken resolves a bearer token to its user, rejecting
// revoked tokens and disabled accounts.
func (s *authService) IdentityFromToken(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.VerifyToken(accessToken)
	if err != nil {
		return nil, &models.UnauthorizedError{Message: "Invalid or expired token"}
	}

	if denied, err := s.isDenied(ctx, accessToken); err != nil {
		return nil, err
	} else if denied {
		return nil, &models.UnauthorizedError{Message: "Token has been revoked"}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, &models.StoreError{Op: "get user", Err: err}
	}
	if user == nil {
		return nil, &models.UnauthorizedError{Message: "User no longer exists"}
	}
	if !user.Active {
		return nil, &models.UnauthorizedError{Message: "Account is disabled"}
	}
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*models.TokenPair, error) {
	access, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, &models.StoreError{Op: "sign access token", Err: err}
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, string(user.Role))
	if err != nil {
		return nil, &models.StoreError{Op: "sign refresh token", Err: err}
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) isDenied(ctx context.Context, tokenString string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	_, err := s.rdb.Get(ctx, denylistPrefix+tokenString).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, &models.StoreError{Op: "check token denylist", Err: err}
	}
	return true, nil
}
