// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or returned in error responses. Bearer tokens, signing
// certificates, presigned URL signatures and credentials routinely pass through
// the authorizer and attachment paths, and must never reach a log line verbatim.
package redact

import "regexp"

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedCertPlaceholder       = "[REDACTED_CERT]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules are applied in order; PEM blocks go first so their base64 bodies
// are not partially matched by the key patterns.
var rules = []rule{
	{
		regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]*?-----END [A-Z ]+-----`),
		RedactedCertPlaceholder,
	},
	{
		// Three-part base64url JWT with a JSON header
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]*`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-.~+/=]+`),
		"${1}" + RedactionPlaceholder,
	},
	{
		// Presigned URL query parameters
		regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token)=)[^&\s"]+`),
		"${1}" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(AKIA|ASIA)[A-Z0-9]{12,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(postgres|postgresql)://[^@\s]+@`),
		RedactedCredentialPlaceholder + "@",
	},
	{
		regexp.MustCompile(`(?i)(password|secret|api[_-]?key)([=:\s]+['"]?)[^'"&\s]{3,}`),
		"${1}${2}" + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
