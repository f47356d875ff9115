package tenant

import "strings"

type CreateTenantDTO struct {
	Name     string  `json:"name" validate:"required,min=2,max=255"`
	Slug     string  `json:"slug" validate:"required,min=2,max=100,slug"`
	Document *string `json:"document" validate:"omitempty,min=1,max=50"`
	IsActive *bool   `json:"isActive"`
}

type UpdateTenantDTO struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=255"`
	Slug     *string `json:"slug" validate:"omitempty,min=2,max=100,slug"`
	Document *string `json:"document" validate:"omitempty,min=1,max=50"`
	IsActive *bool   `json:"isActive"`
}

// normalizeDocument treats a blank document as absent.
func normalizeDocument(doc *string) *string {
	if doc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*doc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
