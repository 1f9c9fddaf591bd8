package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/timhq/tim/internal"
)

// Repository is the user lookup surface the auth service needs. Implemented
// over the users table in the postgres subpackage.
type Repository interface {
	GetCredentials(email string) (userID, passwordHash string, err error)
	GetSessionUser(userID string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	CreateGoogleUser(email, name, avatarURL string) (*User, error)
	TouchLogin(userID string, avatarURL *string) error
	CountAssignedCustomers(userID string) (int64, error)
}

type Service struct {
	repo       Repository
	tokens     TokenGenerator
	google     GoogleVerifier
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, tokens TokenGenerator, google GoogleVerifier, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		google:     google,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Authenticate validates credentials and returns tokens plus the session
// user. Unknown emails and bad passwords are indistinguishable to callers.
func (s *Service) Authenticate(dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	userID, storedHash, err := s.repo.GetCredentials(dto.Email)
	if err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	user, err := s.repo.GetSessionUser(userID)
	if err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := s.repo.TouchLogin(user.ID, nil); err != nil {
		s.logger.Warn("failed to stamp last login", "user_id", user.ID, "error", err)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: user}, nil
}

// AuthenticateGoogle verifies a Google ID token, creating the user on first
// sign-in with the default engineer role.
func (s *Service) AuthenticateGoogle(ctx context.Context, dto GoogleLoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	identity, err := s.google.Verify(ctx, dto.IDToken)
	if err != nil {
		s.logger.Warn("google token verification failed", "error", err)
		return nil, internal.ErrInvalidGoogleToken
	}
	if !identity.EmailVerified {
		return nil, internal.ErrEmailNotVerified
	}

	user, err := s.repo.GetUserByEmail(identity.Email)
	if err != nil {
		user, err = s.repo.CreateGoogleUser(identity.Email, identity.Name, identity.Picture)
		if err != nil {
			return nil, internal.NewInternalError("failed to create user from Google sign-in", err)
		}
		s.logger.Info("created user from google sign-in", "user_id", user.ID, "email", user.Email)
	}

	avatar := identity.Picture
	if err := s.repo.TouchLogin(user.ID, &avatar); err != nil {
		s.logger.Warn("failed to stamp last login", "user_id", user.ID, "error", err)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: user}, nil
}

// RefreshTokens exchanges a valid refresh token for a new token pair.
func (s *Service) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, internal.NewUnauthorizedError("Invalid refresh token", internal.ErrCodeInvalidRefreshToken)
	}

	user, err := s.repo.GetSessionUser(claims.UserID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) GetSessionUser(userID string) (*User, error) {
	return s.repo.GetSessionUser(userID)
}

// HasCustomerAssignments reports whether the user is assigned to at least
// one active customer. Used by the app-level access gate.
func (s *Service) HasCustomerAssignments(userID string) (bool, error) {
	count, err := s.repo.CountAssignedCustomers(userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issueTokens(user *User) (TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Roles.Strings())
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, internal.NewInternalError("failed to generate refresh token", err)
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) AccessTTL() time.Duration {
	return j.AccessTokenTTL
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID string, roles []string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Roles:     roles,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret, TokenTypeAccess)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret, TokenTypeRefresh)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, internal.ErrTokenInvalid
	}
	return claims, nil
}

// GenerateRandomToken returns a cryptographically random hex token, used for
// invitation links.
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
