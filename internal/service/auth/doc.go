// Package auth verifies bearer tokens issued by the external identity provider.
//
// Verification is split into three steps that can be used on their own:
// ExtractBearerToken and DecodeUnverified read the token and its key ID,
// JWKSResolver fetches the provider's published key set and picks the
// matching key, and Verifier checks the RS256 signature and time claims.
// Every failure wraps one of the package's sentinel errors; Classify turns
// an error into a FailureKind for logging and tests.
package auth
