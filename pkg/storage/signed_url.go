package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidLink = errors.New("invalid download link")
	ErrLinkExpired = errors.New("download link expired")
)

// LinkSigner issues HMAC signed tokens that reference a stored document until they expire.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner builds a signer. A non-positive ttl falls back to one hour.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued links stay valid.
func (s *LinkSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns a token for name and the moment it stops being accepted.
// Tokens have the form <base64 name>.<unix expiry>.<hex signature>.
func (s *LinkSigner) Sign(name string) (string, time.Time, error) {
	if name == "" {
		return "", time.Time{}, fmt.Errorf("name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	return encoded + "." + expiry + "." + s.mac(encoded, expiry), expiresAt, nil
}

// Verify checks the signature and expiry of token and returns the referenced name.
func (s *LinkSigner) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidLink
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidLink
	}
	encoded, expiry, signature := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.mac(encoded, expiry)), []byte(signature)) {
		return "", ErrInvalidLink
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", ErrInvalidLink
	}
	if s.now().After(time.Unix(unix, 0)) {
		return "", ErrLinkExpired
	}
	name, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidLink
	}
	return string(name), nil
}

func (s *LinkSigner) mac(encoded, expiry string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(encoded + "|" + expiry))
	return hex.EncodeToString(h.Sum(nil))
}
