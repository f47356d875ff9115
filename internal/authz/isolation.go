package authz

import "context"

// Ownership is what an owner lookup knows about a resource.
type Ownership struct {
	Found bool
	Scope TenantScope
}

func NotFound() Ownership {
	return Ownership{}
}

func OwnedBy(scope TenantScope) Ownership {
	return Ownership{Found: true, Scope: scope}
}

// OwnerLookup resolves the tenant owning the resource with the given id.
type OwnerLookup func(ctx context.Context, id int64) (Ownership, error)

// Resource declares, at route registration, which URL parameter names the
// resource and how its tenant is looked up.
type Resource struct {
	Kind   string
	Param  string
	Lookup OwnerLookup
}

// TenantIsolation denies access to resources outside the caller's tenant.
// A missing resource and a foreign one are reported identically.
func TenantIsolation(id *Identity, own Ownership) Decision {
	if id == nil {
		return Deny(NotAuthenticated)
	}
	if !own.Found || own.Scope.IsGlobal() || own.Scope != id.Scope {
		return Decision{Reason: ResourceNotFound, Gate: "TenantIsolation"}
	}
	return Allow()
}
