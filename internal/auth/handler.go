package auth

import (
	"encoding/json"
	"net/http"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/transport"
	"github.com/timhq/tim/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	result, err := h.Service.Authenticate(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         result.User,
		ExpiresIn:    result.Tokens.ExpiresIn,
	})
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var dto GoogleLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}

	result, err := h.Service.AuthenticateGoogle(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         result.User,
		ExpiresIn:    result.Tokens.ExpiresIn,
	})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body", internal.ErrCodeValidationFailed)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	pair, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Logout acknowledges the request; tokens are stateless so there is nothing
// to revoke server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrTokenMissing)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// AuthMiddleware validates the bearer token and loads the active session
// user into the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.ErrTokenMissing)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		user, err := h.Service.GetSessionUser(claims.UserID)
		if err != nil {
			h.WriteAppError(w, internal.ErrTokenInvalid)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates a subtree on the actor holding at least one of the
// given roles.
func (h *Handler) RequireRoles(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				h.WriteAppError(w, internal.ErrTokenMissing)
				return
			}
			if !user.Roles.HasAny(roles...) {
				h.WriteAppError(w, internal.ErrInsufficientPermissions)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCustomerAssignment is the coarse app gate: engineers with no
// active customer assignment are denied outright. Admins and account
// managers pass regardless.
func (h *Handler) RequireCustomerAssignment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, internal.ErrTokenMissing)
			return
		}

		if user.Roles.ExemptFromAssignmentGate() {
			next.ServeHTTP(w, r)
			return
		}

		assigned, err := h.Service.HasCustomerAssignments(user.ID)
		if err != nil {
			h.Logger.Error("customer assignment check failed", "user_id", user.ID, "error", err)
			h.WriteError(w, http.StatusInternalServerError, "Access check error", internal.ErrCodeInternal)
			return
		}
		if !assigned {
			h.WriteAppError(w, internal.ErrNoCustomersAssigned)
			return
		}

		next.ServeHTTP(w, r)
	})
}
