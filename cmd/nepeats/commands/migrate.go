package commands

import (
	"fmt"
	"strconv"

	"nepeats/internal/pkg/config"
	"nepeats/internal/pkg/migrator"
	"nepeats/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	downSteps     int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to keep the schema in sync with the code.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back migrations
  force   - Set the version without running migrations (clears the dirty flag)`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrator.Migrator) error {
			return m.Up()
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long: `Roll back applied migrations.

Examples:
  nepeats migrate down             # Roll back the last migration
  nepeats migrate down --steps 2   # Roll back the last two migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withMigrator(func(m *migrator.Migrator) error {
			return m.Down(downSteps)
		})
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Force the schema version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migrator.Migrator) error {
			return m.Force(version)
		})
	},
}

// withMigrator 打开迁移器，执行 fn 后输出当前版本
func withMigrator(fn func(m *migrator.Migrator) error) error {
	m, err := migrator.New("file://"+migrationsDir, config.GlobalConfig.Database.URL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Log.Info("Migration finished", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "migrations", "Directory for migration files")
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateForceCmd)
	rootCmd.AddCommand(migrateCmd)
}
