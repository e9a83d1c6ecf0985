package bridge

import "context"

type ctxKey int

const (
	bearerKey ctxKey = iota
	callIDKey
)

// WithBearer attaches the caller's bearer credential. The bridge never
// inspects it; the transport forwards it as an Authorization header.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey, token)
}

// BearerFromContext returns the credential attached with WithBearer.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey).(string)
	return token, ok && token != ""
}

// WithCallID tags ctx with the dispatcher's per-call identifier.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey, id)
}

// CallIDFromContext returns the identifier set by WithCallID.
func CallIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callIDKey).(string)
	return id, ok && id != ""
}
