package authz

import (
	"encoding/json"
	"strconv"
)

// TenantScope is either Global (no tenant) or BelongsTo a single tenant.
// The zero value is Global.
type TenantScope struct {
	tenantID int64
	bound    bool
}

func Global() TenantScope {
	return TenantScope{}
}

func BelongsTo(tenantID int64) TenantScope {
	return TenantScope{tenantID: tenantID, bound: true}
}

// ScopeOf converts a nullable tenant column into a scope.
func ScopeOf(tenantID *int64) TenantScope {
	if tenantID == nil {
		return Global()
	}
	return BelongsTo(*tenantID)
}

func (s TenantScope) IsGlobal() bool {
	return !s.bound
}

func (s TenantScope) TenantID() (int64, bool) {
	return s.tenantID, s.bound
}

// Ptr is the nullable column form of the scope.
func (s TenantScope) Ptr() *int64 {
	if !s.bound {
		return nil
	}
	id := s.tenantID
	return &id
}

func (s TenantScope) String() string {
	if !s.bound {
		return "global"
	}
	return "tenant:" + strconv.FormatInt(s.tenantID, 10)
}

func (s TenantScope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ptr())
}
