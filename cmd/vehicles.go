package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/pkg/export"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "List the vehicle catalog",
	RunE:  runVehicles,
}

func init() {
	rootCmd.AddCommand(vehiclesCmd)
}

func runVehicles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := app.BuildCatalog(cfg)
	if err != nil {
		return err
	}
	return export.WriteVehicles(cmd.OutOrStdout(), cat.List(), cfg.Defaults.VehicleID)
}
