package httpx

import "context"

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyTokenID   ctxKey = "token_id"
)

// AccountIDFromContext returns the account set by Authenticate, or "".
func AccountIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyAccountID).(string)
	return v
}

// TokenIDFromContext returns the session token set by Authenticate, or "".
func TokenIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyTokenID).(string)
	return v
}

func contextWithCredential(ctx context.Context, c Credential) context.Context {
	ctx = context.WithValue(ctx, CtxKeyAccountID, c.AccountID)
	ctx = context.WithValue(ctx, CtxKeyTokenID, c.TokenID)
	return ctx
}
