package httpx

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// Envelope codes written by RequirePowers.
const (
	CodeInsufficientPowers = -403
	CodeInternal           = -500
)

// PermissionChecker decides whether an account holds every listed power.
type PermissionChecker interface {
	HasPowers(ctx context.Context, accountID string, powers ...string) (bool, error)
}

// StaticPermissions grants fixed powers per account id.
type StaticPermissions map[string][]string

func (p StaticPermissions) HasPowers(_ context.Context, accountID string, powers ...string) (bool, error) {
	have := p[accountID]
	for _, want := range powers {
		if !slices.Contains(have, want) {
			return false, nil
		}
	}
	return true, nil
}

// RequirePowers must run after Authenticate. The caller must hold every
// power listed.
func RequirePowers(checker PermissionChecker, powers ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			accountID := AccountIDFromContext(ctx)

			ok, err := checker.HasPowers(ctx, accountID, powers...)
			if err != nil {
				slogx.FromContext(ctx).Error("permission check failed", "err", err)
				WriteEnvelope(w, http.StatusInternalServerError, CodeInternal, "internal error")
				return
			}
			if accountID == "" || !ok {
				WriteEnvelope(w, http.StatusForbidden, CodeInsufficientPowers,
					"insufficient powers: "+strings.Join(powers, " "))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
