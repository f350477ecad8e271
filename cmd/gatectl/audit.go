package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Lint the server's gate table",
	Long: `Audit fetches the server's configuration findings and exits with
0 when the table is clean, 1 on warnings and 2 on failures, so it can run
in deploy pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := api.Audit(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(report)
		} else {
			fmt.Printf("Checked %d gates at %s\n", report.Gates, report.CheckedAt.Format("2006-01-02 15:04:05"))
			if len(report.Findings) == 0 {
				fmt.Println("No findings")
			} else {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SEVERITY\tPLATFORM\tMESSAGE")
				for _, f := range report.Findings {
					fmt.Fprintf(w, "%s\t%s\t%s\n", f.Severity, f.Platform, f.Message)
				}
				w.Flush()
			}
		}

		switch report.Worst() {
		case "failure":
			os.Exit(2)
		case "warning":
			os.Exit(1)
		}
		return nil
	},
}
