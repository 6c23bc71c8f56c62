package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"lumina-backend/domain/entities"
	"lumina-backend/pkg/common"
)

// IdentityResolver turns a session token into a caller identity. The
// auth service is the only implementation; the interface keeps this
// package free of application wiring.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (common.Identity, error)
}

// Authenticate resolves the caller's identity and attaches it to the
// request context. Behind API Gateway the Lambda authorizer has already
// resolved it and stamped the authorizer context; everywhere else the
// token is resolved here, through the same resolution path.
func Authenticate(resolver IdentityResolver, cookieName string, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := identityFromAuthorizer(r); ok {
				next.ServeHTTP(w, r.WithContext(common.WithIdentity(r.Context(), identity)))
				return
			}

			token := extractToken(r, cookieName)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Debug("Token resolution failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin rejects callers without the admin role. It must sit
// inside Authenticate.
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := common.GetIdentity(r.Context())
			if !ok {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
				return
			}
			if !identity.IsAdmin() {
				common.RespondError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identityFromAuthorizer reads the identity the Lambda authorizer left
// in the gateway request context. Only present when running behind the
// lambda proxy adapter; the values are trusted because the gateway will
// not invoke the backend without a passing authorizer.
func identityFromAuthorizer(r *http.Request) (common.Identity, bool) {
	var claims map[string]interface{}
	if gwCtx, ok := core.GetAPIGatewayContextFromContext(r.Context()); ok && gwCtx.Authorizer != nil {
		claims = gwCtx.Authorizer
	} else if gwV2Ctx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok && gwV2Ctx.Authorizer != nil {
		claims = gwV2Ctx.Authorizer.Lambda
	}
	if claims == nil {
		return common.Identity{}, false
	}

	userID, _ := claims["userID"].(string)
	if userID == "" {
		return common.Identity{}, false
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	sessionID, _ := claims["sessionID"].(string)
	if role == "" {
		role = string(entities.RoleUser)
	}
	return common.Identity{
		UserID:    userID,
		Email:     email,
		Role:      entities.Role(role),
		SessionID: sessionID,
	}, true
}

// extractToken pulls the session token from the Authorization header or
// the session cookie, in that order.
func extractToken(r *http.Request, cookieName string) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// ClientIP extracts the client IP address
func ClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
