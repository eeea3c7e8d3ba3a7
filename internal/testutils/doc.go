// Package testutils provides shared test fixtures: RSA signing keys with
// self-signed certificates, token signing, and an httptest JWKS server.
package testutils
