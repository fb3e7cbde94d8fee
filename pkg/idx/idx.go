// Package idx generates identifiers.
//
// Accounts and session tokens are keyed by UUIDs so they stay compatible with
// rows created by earlier deployments. Request ids, which only ever show up in
// logs, are ULIDs so they sort by arrival time.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrInvalid reports a malformed identifier.
var ErrInvalid = errors.New("idx: invalid id")

var (
	requestOnce sync.Once
	requestMu   sync.Mutex
	entropy     *ulid.MonotonicEntropy
)

// NewID returns a new entity id. Time-based (v1) UUIDs are used when the
// node id can be derived, random (v4) ones otherwise.
func NewID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ParseID validates an entity id and returns it in canonical lower-case form.
func ParseID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalid
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalid
	}
	return id.String(), nil
}

// IsID reports whether s is a well-formed entity id.
func IsID(s string) bool {
	_, err := ParseID(s)
	return err == nil
}

// NewRequestID returns a lexicographically sortable request id.
func NewRequestID() string {
	return NewRequestIDAt(time.Now().UTC())
}

// NewRequestIDAt returns a request id stamped with t, useful in tests.
func NewRequestIDAt(t time.Time) string {
	requestOnce.Do(func() {
		entropy = ulid.Monotonic(rand.Reader, 0)
	})

	requestMu.Lock()
	defer requestMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// RequestTime extracts the timestamp embedded in a request id. Invalid ids
// yield the zero time.
func RequestTime(id string) time.Time {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
