package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// SigningAlgorithm is the only accepted token signing algorithm.
const SigningAlgorithm = "RS256"

// Claims are the validated claims of a verified token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// Verifier checks bearer tokens against keys from a KeyResolver.
type Verifier struct {
	keys     KeyResolver
	issuer   string
	audience string
	leeway   time.Duration
	timeFunc func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) { v.audience = audience }
}

// WithLeeway allows for clock skew when validating time based claims.
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = leeway }
}

// WithTimeFunc overrides the clock used for exp and nbf checks.
func WithTimeFunc(fn func() time.Time) VerifierOption {
	return func(v *Verifier) { v.timeFunc = fn }
}

// NewVerifier creates a Verifier resolving keys through keys.
func NewVerifier(keys KeyResolver, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys:     keys,
		timeFunc: time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the full flow for an Authorization header value: extract the
// bearer token, read its kid without verification, resolve the key, and
// verify the token against it.
func (v *Verifier) Verify(ctx context.Context, header string) (*Claims, error) {
	log := logger.FromContext(ctx)

	token, err := ExtractBearerToken(header)
	if err != nil {
		return nil, err
	}

	decoded, err := DecodeUnverified(token)
	if err != nil {
		return nil, err
	}

	log.Debug("resolving signing key", slog.String("kid", decoded.KeyID))
	pemKey, err := v.keys.ResolveKey(ctx, decoded.KeyID)
	if err != nil {
		return nil, err
	}

	return v.VerifyToken(ctx, token, pemKey)
}

// VerifyToken verifies token against a PEM encoded certificate or RSA public key.
func (v *Verifier) VerifyToken(ctx context.Context, token, pemKey string) (*Claims, error) {
	log := logger.FromContext(ctx)

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("%w: unusable signing key: %v", ErrKeyNotFound, err)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningAlgorithm}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.timeFunc),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	registered := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		registered,
		func(*jwt.Token) (interface{}, error) {
			return publicKey, nil
		},
		parserOpts...)
	if err != nil {
		mapped := mapParseError(err)
		log.Debug("token verification failed",
			slog.String("reason", string(Classify(mapped))),
			slog.String("error", err.Error()))
		return nil, mapped
	}

	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}

	if registered.Subject == "" {
		return nil, ErrMissingSubject
	}

	claims := &Claims{
		Subject:  registered.Subject,
		Issuer:   registered.Issuer,
		Audience: registered.Audience,
		ID:       registered.ID,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}

	log.Debug("token verified", slog.String("sub", claims.Subject))
	return claims, nil
}

// mapParseError translates golang-jwt errors into this package's taxonomy.
// Signature checks run before claim checks, so an expired token only maps to
// ErrTokenExpired once its signature is known to be good.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
}
