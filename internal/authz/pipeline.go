package authz

// Pipeline evaluates gates in order; the first deny wins and later gates are skipped.
type Pipeline struct {
	Name  string
	gates []Gate
}

func NewPipeline(name string, gates ...Gate) Pipeline {
	return Pipeline{Name: name, gates: gates}
}

func (p Pipeline) Evaluate(id *Identity) Decision {
	// fail closed on an empty pipeline
	if len(p.gates) == 0 {
		return Decision{Reason: NotAuthenticated, Gate: "empty"}
	}
	for _, g := range p.gates {
		if d := g.Check(id); !d.Allowed() {
			d.Gate = g.Name
			return d
		}
	}
	return Allow()
}

func (p Pipeline) Gates() []string {
	names := make([]string, len(p.gates))
	for i, g := range p.gates {
		names[i] = g.Name
	}
	return names
}

var (
	// AuthenticatedPolicy admits any active user, super admins included.
	AuthenticatedPolicy = NewPipeline("authenticated", Authenticated, Active)

	// GlobalAdminPolicy guards tenant management and global user management.
	GlobalAdminPolicy = NewPipeline("global-admin", Authenticated, Active, GlobalAdmin)

	// TenantAdminPolicy guards tenant-scoped user management and the permission catalog.
	TenantAdminPolicy = NewPipeline("tenant-admin", Authenticated, Active, TenantMember, TenantAdminOf(OwnTenant))

	// PermissionCatalogPolicy guards the read-only permission catalog.
	PermissionCatalogPolicy = NewPipeline("permission-catalog", Authenticated, Active, TenantMember, TenantAdminOf(OwnTenant))

	// TenantMemberPolicy guards self-service profile operations.
	TenantMemberPolicy = NewPipeline("tenant-member", Authenticated, Active, TenantMember)
)
