// Package signx builds the digests that bind credential fields together.
//
// A signature is the lower-case hex MD5 of the fields concatenated in a fixed
// order. The order is part of the wire protocol: signer and verifier must pass
// the same fields in the same sequence. MD5 is only strong enough to stop
// casual forgery by someone who does not know the server-side secret mixed
// into the input; it makes no collision-resistance promises.
package signx

import (
	"crypto/md5" // #nosec G501 - digest format is fixed by the credential protocol
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Size is the length of a signature in hex characters.
const Size = md5.Size * 2

// Sign returns the digest of parts concatenated in order. Strings are used
// verbatim, integers in base 10 and floats in their shortest decimal form
// without an exponent. Sign panics on a part it cannot format.
func Sign(parts ...any) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(canonical(p))
	}
	sum := md5.Sum([]byte(b.String())) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// Session returns the signature of a session credential.
func Session(accountID, tokenID, secret string, timestamp int64) string {
	return Sign(accountID, tokenID, secret, timestamp)
}

// Activation returns the signature embedded in an activation link.
func Activation(activeToken, accountID string, timestamp int64) string {
	return Sign(activeToken, accountID, timestamp)
}

// Equal reports whether two signatures match, ignoring hex case.
func Equal(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func canonical(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		panic(fmt.Sprintf("signx: unsupported part type %T", p))
	}
}
