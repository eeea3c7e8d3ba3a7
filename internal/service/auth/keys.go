package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// maxKeySetBytes bounds the key set response body.
const maxKeySetBytes = 1 << 20

// KeyResolver returns the PEM encoded verification key for a key ID.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (string, error)
}

// JWKSResolver fetches the key set from a fixed URL on every call.
// Nothing is cached between calls.
type JWKSResolver struct {
	url    string
	client *http.Client
}

// Ensure JWKSResolver implements KeyResolver
var _ KeyResolver = (*JWKSResolver)(nil)

// NewJWKSResolver creates a resolver for the key set at jwksURL.
// A nil client gets a default client with a 10 second timeout.
func NewJWKSResolver(jwksURL string, client *http.Client) *JWKSResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSResolver{url: jwksURL, client: client}
}

// keySet is the wire shape of a JWKS document. Entries are kept raw so an
// entry without a certificate chain can still be parsed as a JWK.
type keySet struct {
	Keys []json.RawMessage `json:"keys"`
}

type keyEntry struct {
	KeyID string   `json:"kid"`
	X5C   []string `json:"x5c"`
}

// ResolveKey fetches the key set and returns the key whose kid matches.
// The first certificate of the entry's x5c chain is returned as a
// CERTIFICATE block; an RSA entry without x5c is returned as a PUBLIC KEY block.
func (r *JWKSResolver) ResolveKey(ctx context.Context, kid string) (string, error) {
	log := logger.FromContext(ctx)

	if kid == "" {
		return "", fmt.Errorf("%w: token has no kid", ErrKeyNotFound)
	}

	set, err := r.fetch(ctx)
	if err != nil {
		log.Error("failed to fetch signing key set", slog.String("url", r.url), slog.Any("error", err))
		return "", err
	}

	for _, raw := range set.Keys {
		var entry keyEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Debug("skipping unreadable key set entry", slog.Any("error", err))
			continue
		}
		if entry.KeyID != kid {
			continue
		}

		if len(entry.X5C) > 0 && entry.X5C[0] != "" {
			return CertificatePEM(entry.X5C[0]), nil
		}

		pemKey, err := publicKeyPEM(raw)
		if err != nil {
			return "", fmt.Errorf("%w: kid %q: %v", ErrKeyNotFound, kid, err)
		}
		return pemKey, nil
	}

	log.Warn("no signing key matches token", slog.String("kid", kid), slog.Int("key_count", len(set.Keys)))
	return "", fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (r *JWKSResolver) fetch(ctx context.Context) (*keySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrKeySetUnavailable, resp.StatusCode)
	}

	var set keySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decoding key set: %v", ErrKeySetUnavailable, err)
	}

	return &set, nil
}

// CertificatePEM wraps a base64 DER certificate from an x5c chain in a PEM block.
func CertificatePEM(der string) string {
	return "-----BEGIN CERTIFICATE-----\n" + der + "\n-----END CERTIFICATE-----\n"
}

func publicKeyPEM(raw []byte) (string, error) {
	key, err := jwk.ParseKey(raw)
	if err != nil {
		return "", fmt.Errorf("parsing jwk: %w", err)
	}
	if key.KeyType() != jwa.RSA {
		return "", fmt.Errorf("unsupported key type %s", key.KeyType())
	}

	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return "", fmt.Errorf("extracting rsa key: %w", err)
	}
	pub, ok := rawKey.(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("expected an rsa public key, got %T", rawKey)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("encoding public key: %w", err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
