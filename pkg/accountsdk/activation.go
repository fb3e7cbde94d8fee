package accountsdk

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrBadActivationLink is returned by ParseActivationLink.
var ErrBadActivationLink = errors.New("accountsdk: malformed activation link")

// ParseActivationLink extracts the accountId, sign and timestamp parameters
// from an emailed link. The parameters may sit in the query string or, for
// single page front ends, after a "?" inside the fragment.
func ParseActivationLink(link string) (ActivationRequest, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ActivationRequest{}, ErrBadActivationLink
	}

	raw := u.RawQuery
	if raw == "" {
		if i := strings.Index(u.Fragment, "?"); i >= 0 {
			raw = u.Fragment[i+1:]
		}
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return ActivationRequest{}, ErrBadActivationLink
	}

	ts, err := strconv.ParseInt(q.Get("timestamp"), 10, 64)
	if err != nil || q.Get("accountId") == "" || q.Get("sign") == "" {
		return ActivationRequest{}, ErrBadActivationLink
	}

	return ActivationRequest{
		AccountID: q.Get("accountId"),
		Sign:      q.Get("sign"),
		Timestamp: ts,
	}, nil
}
