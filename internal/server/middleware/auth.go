package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tabletalk/tabletalk/internal/service"
)

type contextKeyAuth string

// ConversationIDKey is the context key for the authenticated conversation.
const ConversationIDKey contextKeyAuth = "conversation_id"

// Authenticate returns an HTTP middleware that resolves the conversation
// bound to the request's Bearer token. Routes behind it can assume a
// conversation ID is present in the context.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide the Bearer token returned by /api/v1/connect.")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			conversationID, err := authSvc.ValidateToken(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ConversationIDKey, conversationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetConversationID extracts the authenticated conversation ID from the
// context. Returns an empty string on unauthenticated requests.
func GetConversationID(ctx context.Context) string {
	if id, ok := ctx.Value(ConversationIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler package.
	w.Write([]byte(`{"error":{"code":` + httpStatusString(status) + `,"message":"` + message + `"}}`))
}

func httpStatusString(code int) string {
	switch code {
	case 401:
		return "401"
	default:
		return "500"
	}
}
