// Package seed writes the reference data a fresh database needs: the
// permission catalog and the initial super administrator.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/tenant-admin/internal"
	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/permission"
)

const defaultAdminName = "Administrador"

type Seeder struct {
	db     *gorm.DB
	hasher security.PasswordHasher
	logger *slog.Logger
}

func NewSeeder(db *gorm.DB, hasher security.PasswordHasher, logger *slog.Logger) *Seeder {
	return &Seeder{db: db, hasher: hasher, logger: logger}
}

// Result reports what a run changed.
type Result struct {
	Permissions       int
	SuperAdminCreated bool
	SuperAdminSkipped bool
}

// Run is idempotent: the catalog is upserted by codename and an existing
// administrator is left untouched.
func (s *Seeder) Run(ctx context.Context, cfg internal.SeedConfig) (*Result, error) {
	n, err := s.Permissions(ctx, permission.DefaultCatalog)
	if err != nil {
		return nil, err
	}
	res := &Result{Permissions: n}

	created, err := s.SuperAdmin(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res.SuperAdminCreated = created
	res.SuperAdminSkipped = cfg.AdminEmail == "" || cfg.AdminPassword == ""
	return res, nil
}

func (s *Seeder) Permissions(ctx context.Context, catalog []permission.Seed) (int, error) {
	if len(catalog) == 0 {
		return 0, nil
	}

	rows := make([]*permissionDatamodel.Permission, 0, len(catalog))
	for _, p := range catalog {
		row := &permissionDatamodel.Permission{Codename: p.Codename, Name: p.Name, Module: p.Module}
		if p.Description != "" {
			desc := p.Description
			row.Description = &desc
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "codename"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "module", "description"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("upsert permissions: %w", err)
	}

	s.logger.InfoContext(ctx, "permission catalog seeded", "count", len(rows))
	return len(rows), nil
}

// SuperAdmin creates the configured administrator when no user holds its email.
// It reports whether a row was inserted.
func (s *Seeder) SuperAdmin(ctx context.Context, cfg internal.SeedConfig) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		s.logger.WarnContext(ctx, "admin credentials not configured, skipping super administrator")
		return false, nil
	}

	var existing userDatamodel.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		s.logger.InfoContext(ctx, "super administrator already exists", "email", email)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = defaultAdminName
	}

	admin := &userDatamodel.User{
		Email:        email,
		Name:         &name,
		PasswordHash: hash,
		IsSuperAdmin: true,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "super administrator created", "email", email, "user_id", admin.ID)
	return true, nil
}
