package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TenantCreated       = "tenant.created"
	TenantUpdated       = "tenant.updated"
	TenantDeleted       = "tenant.deleted"
	TenantToggled       = "tenant.toggled"
	UserCreated         = "user.created"
	UserUpdated         = "user.updated"
	UserDeleted         = "user.deleted"
	UserToggled         = "user.toggled"
	UserTenantChanged   = "user.tenant_changed"
	UserPasswordChanged = "user.password_changed"
	UserRolesAssigned   = "user.roles_assigned"
	UserRolesRemoved    = "user.roles_removed"
	UserPermsAssigned   = "user.permissions_assigned"
	UserPermsRemoved    = "user.permissions_removed"
	RoleCreated         = "role.created"
	RoleUpdated         = "role.updated"
	RoleDeleted         = "role.deleted"
	RolePermsReplaced   = "role.permissions_replaced"
)

// AuditTypes lists every event type the services publish.
var AuditTypes = []string{
	TenantCreated, TenantUpdated, TenantDeleted, TenantToggled,
	UserCreated, UserUpdated, UserDeleted, UserToggled, UserTenantChanged, UserPasswordChanged,
	UserRolesAssigned, UserRolesRemoved, UserPermsAssigned, UserPermsRemoved,
	RoleCreated, RoleUpdated, RoleDeleted, RolePermsReplaced,
}

func IsAuditType(eventType string) bool {
	for _, t := range AuditTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// AuditEvent records one state change made through the admin API.
type AuditEvent struct {
	ID   string                 `json:"id"`
	Type string                 `json:"type"`
	At   time.Time              `json:"occurredAt"`
	Data map[string]interface{} `json:"data,omitempty"`
}

func (e AuditEvent) EventType() string     { return e.Type }
func (e AuditEvent) EventID() string       { return e.ID }
func (e AuditEvent) OccurredAt() time.Time { return e.At }
func (e AuditEvent) Payload() interface{}  { return e.Data }

func NewEvent(eventType string, data map[string]interface{}) AuditEvent {
	return AuditEvent{
		ID:   uuid.New().String(),
		Type: eventType,
		At:   time.Now().UTC(),
		Data: data,
	}
}

// AuditLogger returns a handler writing every event as a structured log line.
func AuditLogger(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		logger.InfoContext(ctx, "audit", attrs...)
		return nil
	}
}
