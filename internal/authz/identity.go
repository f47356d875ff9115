package authz

import "context"

// Identity is the freshly resolved caller of a request.
type Identity struct {
	ID            int64       `json:"id"`
	Email         string      `json:"email"`
	Name          *string     `json:"name"`
	IsSuperAdmin  bool        `json:"isSuperAdmin"`
	IsTenantAdmin bool        `json:"isTenantAdmin"`
	Scope         TenantScope `json:"tenantId"`
	IsActive      bool        `json:"isActive"`
}

type ctxKey string

const identityKey ctxKey = "identity"

func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
