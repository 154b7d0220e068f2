package commands

import (
	"fmt"
	"os"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nepeats",
	Short: "NepEats food-ordering backend",
	Long: `NepEats serves the storefront, restaurant operator and admin APIs.

Configuration is read from configs/config[.<APP_ENV>].yaml and environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(); err != nil {
			return err
		}
		app := config.GlobalConfig.App
		return logger.Init(app.Env, app.Debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
