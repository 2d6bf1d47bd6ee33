package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResourceKind scopes a signed token to one class of downloadable
// resource. A token minted for one kind never validates against a
// signer for another, even when both share a secret.
type ResourceKind string

const (
	// KindReport covers generated compliance report exports.
	KindReport ResourceKind = "report"
	// KindDiscussionImage covers images attached to discussion posts.
	KindDiscussionImage ResourceKind = "discussion-image"
)

// SignedURLSigner mints and validates download tokens for a single
// resource kind.
type SignedURLSigner struct {
	kind   ResourceKind
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer scoped to the given resource kind.
func NewSignedURLSigner(kind ResourceKind, secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a signed token granting time-limited access to the
// file at relPath on behalf of the identified resource.
func (s *SignedURLSigner) Generate(resourceID, relPath string) (string, time.Time, error) {
	if resourceID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("resourceID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{
		string(s.kind), resourceID, exp, encodedPath,
		s.sign(resourceID, exp, encodedPath),
	}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata. Tokens
// minted for a different resource kind fail even with a valid
// signature. When allowExpired is true, the timestamp check is skipped
// (used by cleanup routines).
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (resourceID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	kind, resourceID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3], parts[4]

	if ResourceKind(kind) != s.kind {
		return "", "", time.Time{}, fmt.Errorf("token issued for %q resources", kind)
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode path: %w", err)
	}

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)

	expected := s.sign(resourceID, exp, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return resourceID, string(rawPath), expiresAt, nil
}

// sign binds the resource kind into the MAC so swapping the kind
// segment of a token invalidates it.
func (s *SignedURLSigner) sign(resourceID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s|%s", s.kind, resourceID, exp, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
