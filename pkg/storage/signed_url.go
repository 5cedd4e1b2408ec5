package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed preview tokens. A token binds a blob id to
// the session that owns it, so a leaked preview URL is useless outside that session.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token referencing the blob and its owning session.
func (s *SignedURLSigner) Generate(blobID, sessionID string) (string, time.Time, error) {
	if blobID == "" || sessionID == "" {
		return "", time.Time{}, fmt.Errorf("blobID and sessionID required")
	}
	if strings.Contains(blobID, ".") || strings.Contains(sessionID, ".") {
		return "", time.Time{}, fmt.Errorf("ids must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{blobID, sessionID, ts, s.sign(blobID, sessionID, ts)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata.
func (s *SignedURLSigner) Parse(token string) (blobID, sessionID string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	blobID, sessionID = parts[0], parts[1]
	ts, signature := parts[2], parts[3]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)

	if !hmac.Equal([]byte(s.sign(blobID, sessionID, ts)), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return blobID, sessionID, expiresAt, nil
}

func (s *SignedURLSigner) sign(blobID, sessionID, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(blobID + "|" + sessionID + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
