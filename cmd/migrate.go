package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"EPESPO-inventario/internal/platform/db"
	"EPESPO-inventario/internal/platform/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version]",
	Short: "Manage the saga journal schema",
	Long:  `Applies or rolls back the embedded schema of the MySQL saga journal configured under journal.database.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := load()
		if err != nil {
			return err
		}
		conn, err := db.Connect(cfg.Journal.DB)
		if err != nil {
			return err
		}
		defer conn.Close()

		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		switch action {
		case "up":
			return migrations.Up(conn, log)
		case "down":
			steps, _ := cmd.Flags().GetInt("steps")
			return migrations.Down(conn, steps, log)
		case "version":
			v, dirty, err := migrations.Version(conn, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		default:
			return fmt.Errorf("unknown action %q: use up, down or version", action)
		}
	},
}

func init() {
	migrateCmd.Flags().Int("steps", 1, "number of migrations to roll back with down")
}
