// Package testutil opens throwaway SQLite stores for repository and handler tests.
package testutil

import (
	"io"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	permissionDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/role"
	tenantDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
)

// Models lists every table of the schema.
var Models = []interface{}{
	&tenantDatamodel.Tenant{},
	&userDatamodel.User{},
	&roleDatamodel.Role{},
	&permissionDatamodel.Permission{},
	&userDatamodel.UserRole{},
	&userDatamodel.UserPermission{},
	&roleDatamodel.RolePermission{},
}

// OpenSQLite returns an in-memory database with the full schema. The pool is
// pinned to one connection because every :memory: connection is a new database.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, err
	}
	return db, nil
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Ptr[T any](v T) *T {
	return &v
}
