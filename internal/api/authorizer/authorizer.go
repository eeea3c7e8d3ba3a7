// Package authorizer implements the API Gateway custom authorizer. It turns
// the outcome of token verification into an IAM policy: Allow for the
// invoked method when the token verifies, Deny otherwise.
package authorizer

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// Policy constants for API Gateway execute-api policies.
const (
	PolicyVersion = "2012-10-17"
	InvokeAction  = "execute-api:Invoke"
	EffectAllow   = "Allow"
	EffectDeny    = "Deny"

	// DenyPrincipal is the principal on every Deny, whatever the failure.
	DenyPrincipal = "user"

	// denyResource covers every method so a cached Deny cannot be sidestepped.
	denyResource = "*"
)

// TokenVerifier verifies an Authorization header value.
type TokenVerifier interface {
	Verify(ctx context.Context, header string) (*auth.Claims, error)
}

// Decision is the access decision for one request.
type Decision struct {
	Effect      string
	PrincipalID string
	Resource    string
	// Failure is set on Deny decisions. It is logged, never returned to the caller.
	Failure auth.FailureKind
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// Decide maps a verification outcome to a decision. Any error, or a result
// without a subject, produces the same Deny.
func Decide(claims *auth.Claims, err error, resource string) Decision {
	if err == nil && (claims == nil || claims.Subject == "") {
		err = auth.ErrMissingSubject
	}

	if err != nil {
		return Decision{
			Effect:      EffectDeny,
			PrincipalID: DenyPrincipal,
			Resource:    denyResource,
			Failure:     auth.Classify(err),
		}
	}

	// The Allow covers only this method ARN. API Gateway caches the policy
	// per token, so authorizer caching must be off or its TTL short, or the
	// token's other routes are denied from the cache.
	return Decision{
		Effect:      EffectAllow,
		PrincipalID: claims.Subject,
		Resource:    resource,
	}
}

// Response renders the decision as an authorizer response.
func (d Decision) Response() events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: d.PrincipalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: PolicyVersion,
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{InvokeAction},
					Effect:   d.Effect,
					Resource: []string{d.Resource},
				},
			},
		},
	}
}

// Handler is the Lambda entry point for TOKEN authorizer events.
type Handler struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default().
func NewHandler(verifier TokenVerifier, logger *slog.Logger) *Handler {
	if verifier == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("verifier cannot be nil for authorizer Handler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		verifier: verifier,
		logger:   logger.With(slog.String("component", "authorizer")),
	}
}

// Handle verifies the event's token and returns the resulting policy.
// It never returns an error: every failure becomes a Deny policy.
func (h *Handler) Handle(
	ctx context.Context,
	event events.APIGatewayCustomAuthorizerRequest,
) (events.APIGatewayCustomAuthorizerResponse, error) {
	log := logger.FromContextOrDefault(ctx, h.logger).With(slog.String("method_arn", event.MethodArn))
	ctx = logger.WithLogger(ctx, log)

	log.Info("authorizing request", slog.String("authorization", redact.String(event.AuthorizationToken)))

	claims, err := h.verifier.Verify(ctx, event.AuthorizationToken)
	decision := Decide(claims, err, event.MethodArn)

	if decision.Allowed() {
		log.Info("user was authorized", slog.String("principal_id", decision.PrincipalID))
	} else {
		log.Warn("user not authorized",
			slog.String("reason", string(decision.Failure)),
			slog.String("error", redact.Error(err)))
	}

	return decision.Response(), nil
}
