package permission

// Seed describes one permission of the built-in catalog.
type Seed struct {
	Codename    string
	Name        string
	Module      string
	Description string
}

// DefaultCatalog is the permission set written by the seed command.
var DefaultCatalog = []Seed{
	{Codename: "add_user", Name: "Create users", Module: "users", Description: "Create users in the tenant"},
	{Codename: "view_user", Name: "View users", Module: "users", Description: "List and view users of the tenant"},
	{Codename: "change_user", Name: "Edit users", Module: "users", Description: "Edit users of the tenant"},
	{Codename: "delete_user", Name: "Delete users", Module: "users", Description: "Delete users of the tenant"},
	{Codename: "assign_user_roles", Name: "Assign roles", Module: "users", Description: "Assign and remove roles of users"},
	{Codename: "assign_user_permissions", Name: "Assign permissions", Module: "users", Description: "Assign and remove direct permissions of users"},
	{Codename: "view_user_permissions", Name: "View user permissions", Module: "users", Description: "View the effective permissions of users"},
	{Codename: "toggle_user_active", Name: "Activate users", Module: "users", Description: "Activate and deactivate users"},
	{Codename: "add_role", Name: "Create roles", Module: "roles", Description: "Create roles in the tenant"},
	{Codename: "view_role", Name: "View roles", Module: "roles", Description: "List and view roles of the tenant"},
	{Codename: "change_role", Name: "Edit roles", Module: "roles", Description: "Edit roles and their permissions"},
	{Codename: "delete_role", Name: "Delete roles", Module: "roles", Description: "Delete roles of the tenant"},
}
