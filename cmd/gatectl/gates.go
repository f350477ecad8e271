package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evn/appgate/pkg/gateclient"
)

var gatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "Manage version gates",
}

var gatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured gates",
	RunE: func(cmd *cobra.Command, args []string) error {
		gates, err := api.ListGates(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(gates)
		} else {
			printGatesTable(gates)
		}
		return nil
	},
}

var gatesSetCmd = &cobra.Command{
	Use:   "set <platform>",
	Short: "Create or replace the gate for a platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		latest, _ := cmd.Flags().GetString("latest")
		minimum, _ := cmd.Flags().GetString("minimum")
		forceMinimum, _ := cmd.Flags().GetString("force-minimum")
		storeURL, _ := cmd.Flags().GetString("store-url")
		maintenance, _ := cmd.Flags().GetBool("maintenance")
		message, _ := cmd.Flags().GetString("message")
		notes, _ := cmd.Flags().GetString("notes")

		if latest == "" || minimum == "" || forceMinimum == "" {
			return fmt.Errorf("--latest, --minimum and --force-minimum are required")
		}

		saved, err := api.PutGate(context.Background(), gateclient.Gate{
			Platform:            args[0],
			LatestVersion:       latest,
			MinimumVersion:      minimum,
			ForceMinimumVersion: forceMinimum,
			StoreURL:            storeURL,
			MaintenanceMode:     maintenance,
			MaintenanceMessage:  message,
			ReleaseNotes:        notes,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(saved)
		} else {
			printGatesTable([]gateclient.Gate{*saved})
		}
		return nil
	},
}

var gatesDeleteCmd = &cobra.Command{
	Use:   "delete <platform>",
	Short: "Remove the gate for a platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteGate(context.Background(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Deleted gate for %s\n", args[0])
		return nil
	},
}

func printGatesTable(gates []gateclient.Gate) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tLATEST\tMINIMUM\tFORCE\tMAINTENANCE\tSTORE")
	for _, g := range gates {
		maintenance := "off"
		if g.MaintenanceMode {
			maintenance = "ON"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Platform, g.LatestVersion, g.MinimumVersion, g.ForceMinimumVersion, maintenance, g.StoreURL)
	}
	w.Flush()
}

func init() {
	gatesSetCmd.Flags().String("latest", "", "latest released version")
	gatesSetCmd.Flags().String("minimum", "", "soft floor, older versions are nagged")
	gatesSetCmd.Flags().String("force-minimum", "", "hard floor, older versions are blocked")
	gatesSetCmd.Flags().String("store-url", "", "store page blocked clients are sent to")
	gatesSetCmd.Flags().Bool("maintenance", false, "put the platform into maintenance")
	gatesSetCmd.Flags().String("message", "", "maintenance message shown to users")
	gatesSetCmd.Flags().String("notes", "", "release notes")

	gatesCmd.AddCommand(gatesListCmd)
	gatesCmd.AddCommand(gatesSetCmd)
	gatesCmd.AddCommand(gatesDeleteCmd)
}
