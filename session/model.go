package session

import (
	"errors"
	"strconv"
	"time"
)

// Hash field names.
const (
	FieldUserID    = "user_id"
	FieldIssuedAt  = "issued_at"
	FieldExpiresAt = "expires_at"
)

// TimeLayout is the on-store timestamp format.
const TimeLayout = time.RFC3339Nano

var (
	// ErrMissingUserID is returned by Decode when the hash has no user_id.
	ErrMissingUserID = errors.New("missing user_id in session")
	// ErrMalformed is returned by Decode when user_id is not a decimal id.
	ErrMalformed = errors.New("malformed session")
)

// Session is the decoded form of a stored session hash.
type Session struct {
	SessionID string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// New builds a session issued at now that expires after ttl.
func New(sessionID string, userID int64, now time.Time, ttl time.Duration) *Session {
	now = now.UTC()
	return &Session{
		SessionID: sessionID,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Fields returns the text field map written to Redis.
func (s *Session) Fields() map[string]string {
	return map[string]string{
		FieldUserID:    strconv.FormatInt(s.UserID, 10),
		FieldIssuedAt:  s.IssuedAt.UTC().Format(TimeLayout),
		FieldExpiresAt: s.ExpiresAt.UTC().Format(TimeLayout),
	}
}

// Decode parses a field map read from Redis. Timestamps that fail to parse are
// left zero; only the user id is required.
func Decode(sessionID string, fields map[string]string) (*Session, error) {
	raw, ok := fields[FieldUserID]
	if !ok || raw == "" {
		return nil, ErrMissingUserID
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrMalformed
	}

	sess := &Session{
		SessionID: sessionID,
		UserID:    userID,
	}
	if v, ok := fields[FieldIssuedAt]; ok {
		sess.IssuedAt, _ = time.Parse(TimeLayout, v)
	}
	if v, ok := fields[FieldExpiresAt]; ok {
		sess.ExpiresAt, _ = time.Parse(TimeLayout, v)
	}

	return sess, nil
}
