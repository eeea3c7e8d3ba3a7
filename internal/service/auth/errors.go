package auth

import "errors"

// Authorization failures. Every error returned by this package wraps exactly
// one of these, so callers can classify a failure with errors.Is.
var (
	// ErrMalformedHeader indicates the Authorization value is missing or not "Bearer <token>".
	ErrMalformedHeader = errors.New("authorization header must be in the form Bearer <token>")

	// ErrMalformedToken indicates the bearer value is not a decodable JWT.
	ErrMalformedToken = errors.New("authentication token is malformed")

	// ErrKeySetUnavailable indicates the signing key set could not be fetched or read.
	ErrKeySetUnavailable = errors.New("signing key set unavailable")

	// ErrKeyNotFound indicates no usable key in the set matches the token's key ID.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrSignatureInvalid indicates the signature does not verify, or uses an unexpected algorithm.
	ErrSignatureInvalid = errors.New("authentication token signature is invalid")

	// ErrTokenExpired indicates the token has expired
	ErrTokenExpired = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingSubject indicates a verified token carries no sub claim.
	ErrMissingSubject = errors.New("authentication token has no subject")

	// ErrClaimsInvalid indicates the issuer or audience does not match the configured values.
	ErrClaimsInvalid = errors.New("authentication token claims are invalid")
)

// FailureKind names the stage at which authorization failed.
type FailureKind string

// Failure kinds reported by Classify.
const (
	FailureNone              FailureKind = ""
	FailureMalformedHeader   FailureKind = "malformed_header"
	FailureMalformedToken    FailureKind = "malformed_token"
	FailureKeySetUnavailable FailureKind = "key_set_unavailable"
	FailureKeyNotFound       FailureKind = "key_not_found"
	FailureSignatureInvalid  FailureKind = "signature_invalid"
	FailureTokenExpired      FailureKind = "token_expired"
	FailureTokenNotYetValid  FailureKind = "token_not_yet_valid"
	FailureMissingSubject    FailureKind = "missing_subject"
	FailureClaimsInvalid     FailureKind = "claims_invalid"
	FailureUnknown           FailureKind = "unknown"
)

var failureKinds = []struct {
	err  error
	kind FailureKind
}{
	{ErrMalformedHeader, FailureMalformedHeader},
	{ErrMalformedToken, FailureMalformedToken},
	{ErrKeySetUnavailable, FailureKeySetUnavailable},
	{ErrKeyNotFound, FailureKeyNotFound},
	{ErrSignatureInvalid, FailureSignatureInvalid},
	{ErrTokenExpired, FailureTokenExpired},
	{ErrTokenNotYetValid, FailureTokenNotYetValid},
	{ErrMissingSubject, FailureMissingSubject},
	{ErrClaimsInvalid, FailureClaimsInvalid},
}

// Classify returns the failure kind of err. A nil error is FailureNone and an
// error from outside this package's taxonomy is FailureUnknown.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return FailureUnknown
}
