// Package main is the API Gateway TOKEN authorizer. It verifies the bearer
// token of each request against the identity provider's JWKS and answers
// with an Allow or Deny policy.
package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/phrazzld/todo-api/internal/api/authorizer"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

func main() {
	cfg, err := config.LoadAuthorizer()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// The client is shared by every invocation of a warm container.
	client := &http.Client{Timeout: cfg.Auth.FetchTimeout()}
	verifier := auth.NewVerifier(
		auth.NewJWKSResolver(cfg.Auth.JWKSURL, client),
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAudience(cfg.Auth.Audience),
		auth.WithLeeway(cfg.Auth.Leeway()),
	)

	l.Info("authorizer started",
		slog.String("jwks_url", cfg.Auth.JWKSURL),
		slog.Duration("fetch_timeout", cfg.Auth.FetchTimeout()))

	lambda.Start(authorizer.NewHandler(verifier, l).Handle)
}
