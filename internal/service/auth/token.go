package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "bearer "

// ExtractBearerToken returns the token from an Authorization header value of
// the form "Bearer <token>". The scheme is matched case-insensitively.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: header is empty", ErrMalformedHeader)
	}

	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", fmt.Errorf("%w: missing bearer scheme", ErrMalformedHeader)
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: expected a single token", ErrMalformedHeader)
	}

	return token, nil
}

// UnverifiedToken is the decoded header and subject of a token whose
// signature has not been checked. It is only good for picking a key, or for
// reading the caller's identity behind a gateway that already verified it.
type UnverifiedToken struct {
	Raw       string
	KeyID     string
	Algorithm string
	Subject   string
}

// DecodeUnverified decodes the token header and claims without verifying the signature.
func DecodeUnverified(token string) (*UnverifiedToken, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	kid, _ := parsed.Header["kid"].(string)
	alg, _ := parsed.Header["alg"].(string)

	return &UnverifiedToken{
		Raw:       token,
		KeyID:     kid,
		Algorithm: alg,
		Subject:   claims.Subject,
	}, nil
}

// SubjectFromHeader returns the unverified subject of the bearer token in header.
func SubjectFromHeader(header string) (string, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return "", err
	}

	decoded, err := DecodeUnverified(token)
	if err != nil {
		return "", err
	}

	if decoded.Subject == "" {
		return "", ErrMissingSubject
	}

	return decoded.Subject, nil
}
