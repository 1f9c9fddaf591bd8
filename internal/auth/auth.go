package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/timhq/tim/internal/access"
)

// User is the session user carried through request context. It is the slim
// view services need for access decisions, not the admin-facing user record.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Roles       access.RoleSet `json:"roles"`
	Timezone    string         `json:"timezone"`
	AvatarURL   *string        `json:"avatarUrl,omitempty"`
	IsActive    bool           `json:"-"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims are the JWT claims issued for both token types.
type Claims struct {
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginResult bundles tokens with the authenticated user for response
// assembly in the handler.
type LoginResult struct {
	Tokens TokenPair
	User   *User
}

type TokenGenerator interface {
	GenerateAccessToken(userID string, roles []string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	AccessTTL() time.Duration
}

// GoogleUser is the identity extracted from a verified Google ID token.
type GoogleUser struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleUser, error)
}

type ctxKey string

const contextUserKey ctxKey = "authUser"

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(contextUserKey).(*User)
	return user, ok
}
