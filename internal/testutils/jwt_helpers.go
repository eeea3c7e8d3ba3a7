package testutils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestKeyID is the kid used by test tokens unless a test picks another.
const TestKeyID = "key-1"

// TestTokenLifetime is the default lifetime of tokens from SignToken.
const TestTokenLifetime = 15 * time.Minute

// SigningKey is an RSA key pair with a self-signed certificate, standing in
// for the identity provider's signing key.
type SigningKey struct {
	Private *rsa.PrivateKey
	CertDER []byte
}

var (
	sharedKeyOnce sync.Once
	sharedKey     *SigningKey
	sharedKeyErr  error
)

// SharedSigningKey returns a process wide test key. RSA generation is slow,
// so tests that do not need distinct keys should use this one.
func SharedSigningKey(t *testing.T) *SigningKey {
	t.Helper()
	sharedKeyOnce.Do(func() {
		sharedKey, sharedKeyErr = generateSigningKey()
	})
	if sharedKeyErr != nil {
		t.Fatalf("failed to generate signing key: %v", sharedKeyErr)
	}
	return sharedKey
}

// NewSigningKey generates a fresh key, for tests that need a key the
// verifier does not trust.
func NewSigningKey(t *testing.T) *SigningKey {
	t.Helper()
	key, err := generateSigningKey()
	if err != nil {
		t.Fatalf("failed to generate signing key: %v", err)
	}
	return key
}

func generateSigningKey() (*SigningKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1653),
		Subject:      pkix.Name{CommonName: "todo-api test signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, err
	}

	return &SigningKey{Private: priv, CertDER: der}, nil
}

// X5C returns the certificate as an x5c chain element (standard base64 DER).
func (k *SigningKey) X5C() string {
	return base64.StdEncoding.EncodeToString(k.CertDER)
}

// Sign signs claims with RS256 and sets kid in the token header.
func (k *SigningKey) Sign(t *testing.T, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(k.Private)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

// SignToken signs a token for subject valid from now for TestTokenLifetime.
func (k *SigningKey) SignToken(t *testing.T, kid, subject string) string {
	t.Helper()
	now := time.Now()
	return k.Sign(t, kid, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TestTokenLifetime)),
	})
}

// JWKSEntry is one key of a JWKS document as served by the test server.
type JWKSEntry struct {
	KeyID string   `json:"kid"`
	Kty   string   `json:"kty,omitempty"`
	Alg   string   `json:"alg,omitempty"`
	Use   string   `json:"use,omitempty"`
	X5C   []string `json:"x5c,omitempty"`
}

// JWKSDocument renders a key set containing k's certificate under each kid.
func (k *SigningKey) JWKSDocument(t *testing.T, kids ...string) []byte {
	t.Helper()
	doc := struct {
		Keys []JWKSEntry `json:"keys"`
	}{}
	for _, kid := range kids {
		doc.Keys = append(doc.Keys, JWKSEntry{
			KeyID: kid,
			Kty:   "RSA",
			Alg:   "RS256",
			Use:   "sig",
			X5C:   []string{k.X5C()},
		})
	}
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal jwks: %v", err)
	}
	return body
}

// JWKSServer serves a key set over HTTP and counts requests.
type JWKSServer struct {
	*httptest.Server
	requests atomic.Int32
	mu       sync.Mutex
	status   int
	body     []byte
}

// NewJWKSServer starts a server answering every request with status and body.
// The server is closed when the test ends.
func NewJWKSServer(t *testing.T, status int, body []byte) *JWKSServer {
	t.Helper()
	s := &JWKSServer{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		status, body := s.status, s.body
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// SetResponse changes what the server answers.
func (s *JWKSServer) SetResponse(status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// Requests returns how many requests the server has handled.
func (s *JWKSServer) Requests() int {
	return int(s.requests.Load())
}
