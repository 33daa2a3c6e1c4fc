package auth

import "context"

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// PrincipalFromContext returns the authenticated principal stashed by the
// auth middleware, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}
