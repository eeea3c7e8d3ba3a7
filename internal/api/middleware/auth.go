package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// principalIDKey is the authorizer context entry set from the policy's principalId.
const principalIDKey = "principalId"

// TokenVerifier verifies an Authorization header value.
type TokenVerifier interface {
	Verify(ctx context.Context, header string) (*auth.Claims, error)
}

// AuthMiddleware resolves the user ID of each request.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware.
//
// With a nil verifier the middleware trusts the API Gateway authorizer: the
// user is the authorizer's principalId, or the subject of the bearer token
// read without verification. With a verifier every token is verified, which
// is how the API runs outside Lambda.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireUser adds the user ID to the request context, or responds 401 when
// no user can be resolved.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, slog.Default())

		userID, err := m.resolveUser(r)
		if err != nil || userID == "" {
			log.Debug("request has no user",
				slog.String("reason", string(auth.Classify(err))),
				slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx = shared.WithUserID(ctx, userID)
		ctx = logger.WithLogger(ctx, log.With(slog.String("user_id", userID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolveUser(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	if m.verifier != nil {
		claims, err := m.verifier.Verify(r.Context(), header)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}

	if principal := principalFromGateway(r.Context()); principal != "" {
		return principal, nil
	}
	return auth.SubjectFromHeader(header)
}

func principalFromGateway(ctx context.Context) string {
	gatewayCtx, ok := core.GetAPIGatewayContextFromContext(ctx)
	if !ok || gatewayCtx.Authorizer == nil {
		return ""
	}
	principal, _ := gatewayCtx.Authorizer[principalIDKey].(string)
	return principal
}
