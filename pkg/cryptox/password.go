package cryptox

import (
	"crypto/md5" // #nosec G501 - stored digests use this format
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrPasswordMismatch is returned by VerifyPassword when the digest differs.
var ErrPasswordMismatch = errors.New("password does not match")

// DigestPassword returns the stored form of a password: its lower-case hex
// MD5 digest. Existing account rows carry this format, so changing it means a
// data migration.
func DigestPassword(password string) string {
	sum := md5.Sum([]byte(password)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a plaintext password against a stored digest in
// constant time.
func VerifyPassword(password, digest string) error {
	computed := DigestPassword(password)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}
