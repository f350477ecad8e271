package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evn/appgate/internal/gate"
	"github.com/evn/appgate/pkg/gateclient"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether an app version may still run",
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetString("current")
		local, _ := cmd.Flags().GetBool("local")

		if local {
			return runLocalCheck(cmd, current)
		}

		platform, _ := cmd.Flags().GetString("platform")
		if platform == "" || current == "" {
			return fmt.Errorf("--platform and --current are required")
		}

		result, err := api.Check(context.Background(), platform, current)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(result)
		} else {
			printCheckResult(result)
		}
		return nil
	},
}

// runLocalCheck resolves the verdict offline from floors given on the
// command line, without talking to any server.
func runLocalCheck(cmd *cobra.Command, current string) error {
	minimum, _ := cmd.Flags().GetString("minimum")
	forceMinimum, _ := cmd.Flags().GetString("force-minimum")
	maintenance, _ := cmd.Flags().GetBool("maintenance")

	if current == "" || minimum == "" || forceMinimum == "" {
		return fmt.Errorf("--current, --minimum and --force-minimum are required with --local")
	}

	status, err := gate.ResolveStrings(current, minimum, forceMinimum, maintenance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]string{"status": string(status)})
	} else {
		fmt.Printf("Status: %s\n", status)
	}
	return nil
}

func printCheckResult(result *gateclient.CheckResult) {
	fmt.Printf("Status:       %s\n", result.Status)
	if result.LatestVersion != "" {
		fmt.Printf("Latest:       %s\n", result.LatestVersion)
	}
	if result.MinimumVersion != "" {
		fmt.Printf("Minimum:      %s\n", result.MinimumVersion)
	}
	if result.ForceMinimumVersion != "" {
		fmt.Printf("Force floor:  %s\n", result.ForceMinimumVersion)
	}
	if result.StoreURL != "" {
		fmt.Printf("Store:        %s\n", result.StoreURL)
	}
	if result.Message != "" {
		fmt.Printf("Message:      %s\n", result.Message)
	}
	if result.ReleaseNotes != "" {
		fmt.Printf("Notes:        %s\n", result.ReleaseNotes)
	}
}

func init() {
	checkCmd.Flags().String("platform", "", "platform to check (android, ios, web)")
	checkCmd.Flags().String("current", "", "app version to check")
	checkCmd.Flags().Bool("local", false, "resolve offline from --minimum/--force-minimum instead of asking the server")
	checkCmd.Flags().String("minimum", "", "soft floor for --local")
	checkCmd.Flags().String("force-minimum", "", "hard floor for --local")
	checkCmd.Flags().Bool("maintenance", false, "maintenance mode for --local")
}
