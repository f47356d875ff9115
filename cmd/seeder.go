package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/seed"
	"github.com/frahmantamala/tenant-admin/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog and the super administrator",
	Long: `Upserts the built-in permission catalog and creates the super administrator
configured under seed.admin_email / seed.admin_password when no user holds that email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		log := logger.LoggerWrapper()

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			return err
		}

		hasher, err := security.NewBcryptHasher(cfg.Security.BCryptCost)
		if err != nil {
			return err
		}

		res, err := seed.NewSeeder(db, hasher, log).Run(cmd.Context(), cfg.Seed)
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}

		log.Info("seed complete",
			"permissions", res.Permissions,
			"super_admin_created", res.SuperAdminCreated,
			"super_admin_skipped", res.SuperAdminSkipped,
		)
		return nil
	},
}
