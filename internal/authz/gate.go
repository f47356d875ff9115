package authz

import "github.com/frahmantamala/tenant-admin/internal"

// Reason tags why a gate denied a request.
type Reason string

const (
	NotAuthenticated    Reason = "NotAuthenticated"
	AccountDisabled     Reason = "AccountDisabled"
	AdminOnly           Reason = "AdminOnly"
	TenantAdminOnly     Reason = "TenantAdminOnly"
	NoTenant            Reason = "NoTenant"
	SuperAdminsExcluded Reason = "SuperAdminsExcluded"
	ResourceNotFound    Reason = "ResourceNotFound"
)

// AppError is the client-facing error for a deny reason.
func (r Reason) AppError() *internal.AppError {
	switch r {
	case NotAuthenticated:
		return internal.ErrNotAuthenticated
	case AccountDisabled:
		return internal.ErrAccountDisabled
	case AdminOnly:
		return internal.ErrAdminOnly
	case TenantAdminOnly:
		return internal.ErrTenantAdminOnly
	case NoTenant:
		return internal.ErrNoTenant
	case SuperAdminsExcluded:
		return internal.ErrSuperAdminsExcluded
	default:
		return internal.ErrResourceNotFound
	}
}

// Decision is the outcome of a gate. A zero Decision allows.
type Decision struct {
	Reason Reason
	Gate   string
}

func (d Decision) Allowed() bool {
	return d.Reason == ""
}

func Allow() Decision {
	return Decision{}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Gate is a single named predicate of a pipeline.
type Gate struct {
	Name  string
	Check func(*Identity) Decision
}

var Authenticated = Gate{
	Name: "Authenticated",
	Check: func(id *Identity) Decision {
		if id == nil {
			return Deny(NotAuthenticated)
		}
		return Allow()
	},
}

var Active = Gate{
	Name: "Active",
	Check: func(id *Identity) Decision {
		if id == nil {
			return Deny(NotAuthenticated)
		}
		if !id.IsActive {
			return Deny(AccountDisabled)
		}
		return Allow()
	},
}

var GlobalAdmin = Gate{
	Name: "GlobalAdmin",
	Check: func(id *Identity) Decision {
		if id == nil {
			return Deny(NotAuthenticated)
		}
		if !id.IsSuperAdmin {
			return Deny(AdminOnly)
		}
		return Allow()
	},
}

var TenantMember = Gate{
	Name: "TenantMember",
	Check: func(id *Identity) Decision {
		if id == nil {
			return Deny(NotAuthenticated)
		}
		if id.IsSuperAdmin {
			return Deny(SuperAdminsExcluded)
		}
		if id.Scope.IsGlobal() {
			return Deny(NoTenant)
		}
		return Allow()
	},
}

// OwnTenant selects the caller's own tenant.
func OwnTenant(id *Identity) TenantScope {
	return id.Scope
}

// TenantAdminOf allows tenant admins of the tenant chosen by target.
// It must run after TenantMember.
func TenantAdminOf(target func(*Identity) TenantScope) Gate {
	return Gate{
		Name: "TenantAdminOf",
		Check: func(id *Identity) Decision {
			if id == nil {
				return Deny(NotAuthenticated)
			}
			scope := target(id)
			if !id.IsTenantAdmin || scope.IsGlobal() || scope != id.Scope {
				return Deny(TenantAdminOnly)
			}
			return Allow()
		},
	}
}
