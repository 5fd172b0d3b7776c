package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"servio_backend/internal/auth"
	"servio_backend/internal/logger"
	"servio_backend/internal/models"
)

// UserResolver looks up the connecting user to confirm existence and
// role. Satisfied by repositories.UserRepository.
type UserResolver interface {
	FindByID(id string) (*models.User, error)
}

// Principal is the resolved identity of an authenticated connection.
type Principal struct {
	UserID string
	Role   models.UserRole
}

// Rejection tells the upgrade handler how to close a socket that failed
// the handshake.
type Rejection struct {
	Code   int
	Reason string
}

// Authenticator validates the bearer credential of an upgrade request
// and resolves it to a principal. Checks run cheapest-first: token
// presence, then signature and expiry, then the token payload, and only
// then the user-store round trip.
type Authenticator struct {
	secret string
	users  UserResolver
}

func NewAuthenticator(secret string, users UserResolver) *Authenticator {
	return &Authenticator{secret: secret, users: users}
}

// Authenticate returns the principal for the request, or a rejection
// with the close code and reason the client should see.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, *Rejection) {
	token := extractToken(r)
	if token == "" {
		return nil, &Rejection{websocket.ClosePolicyViolation, "unauthorized: no token"}
	}

	if a.secret == "" {
		// Misconfiguration: reject every upgrade until fixed, do not crash.
		logger.Error("websocket handshake rejected: jwt secret is not configured")
		return nil, &Rejection{websocket.CloseInternalServerErr, "internal error"}
	}

	claims, err := auth.ParseToken(a.secret, token)
	if err != nil {
		logger.Warn("websocket handshake rejected: token verification failed", "error", err)
		return nil, &Rejection{websocket.ClosePolicyViolation, "unauthorized: authentication failed"}
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, &Rejection{websocket.ClosePolicyViolation, "unauthorized: invalid token payload"}
	}

	user, err := a.users.FindByID(userID)
	if err != nil || !models.ValidUserRole(user.Role) {
		logger.Warn("websocket handshake rejected: unknown user or role", "user_id", userID, "error", err)
		return nil, &Rejection{websocket.ClosePolicyViolation, "unauthorized: invalid user or user type"}
	}

	return &Principal{UserID: user.ID, Role: user.Role}, nil
}

// extractToken reads the credential from the token query parameter or
// the Authorization header.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
