package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and report the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := storage.Open(cmd.Context(), cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := db.Version(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("database ready", zap.String("path", db.Path()), zap.Int64("version", v))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
