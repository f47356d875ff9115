package permission

import (
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
)

type Permission struct {
	ID          int64   `json:"id"`
	Codename    string  `json:"codename"`
	Name        string  `json:"name"`
	Module      string  `json:"module"`
	Description *string `json:"description"`
}

type ModuleGroup struct {
	Module      string        `json:"module"`
	Count       int           `json:"count"`
	Permissions []*Permission `json:"permissions"`
}

func FromDataModel(p *permissionDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Codename:    p.Codename,
		Name:        p.Name,
		Module:      p.Module,
		Description: p.Description,
	}
}

func FromDataModels(rows []*permissionDatamodel.Permission) []*Permission {
	out := make([]*Permission, len(rows))
	for i, row := range rows {
		out[i] = FromDataModel(row)
	}
	return out
}

// Group buckets permissions by module, keeping their order.
func Group(perms []*Permission) []ModuleGroup {
	var groups []ModuleGroup
	index := make(map[string]int)
	for _, p := range perms {
		i, ok := index[p.Module]
		if !ok {
			i = len(groups)
			index[p.Module] = i
			groups = append(groups, ModuleGroup{Module: p.Module, Permissions: []*Permission{}})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
		groups[i].Count++
	}
	if groups == nil {
		groups = []ModuleGroup{}
	}
	return groups
}
