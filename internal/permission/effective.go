package permission

import "sort"

// EffectiveSet is what a user may do. Unrestricted marks a super admin,
// whose access is not enumerated.
type EffectiveSet struct {
	Unrestricted bool          `json:"unrestricted"`
	Permissions  []*Permission `json:"permissions"`
	// FromRoles and Direct count the rows of each source before deduplication.
	FromRoles int `json:"fromRoles"`
	Direct    int `json:"direct"`
}

func Unrestricted() EffectiveSet {
	return EffectiveSet{Unrestricted: true, Permissions: []*Permission{}}
}

// Resolve unions role-derived and direct permissions, deduplicated by id.
// Direct grants supplement roles; they never remove anything.
func Resolve(isSuperAdmin bool, fromRoles, direct []*Permission) EffectiveSet {
	if isSuperAdmin {
		return Unrestricted()
	}

	seen := make(map[int64]struct{}, len(fromRoles)+len(direct))
	perms := make([]*Permission, 0, len(fromRoles)+len(direct))
	for _, source := range [][]*Permission{fromRoles, direct} {
		for _, p := range source {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			perms = append(perms, p)
		}
	}

	sort.SliceStable(perms, func(i, j int) bool {
		if perms[i].Module != perms[j].Module {
			return perms[i].Module < perms[j].Module
		}
		return perms[i].Codename < perms[j].Codename
	})

	return EffectiveSet{
		Permissions: perms,
		FromRoles:   len(fromRoles),
		Direct:      len(direct),
	}
}
