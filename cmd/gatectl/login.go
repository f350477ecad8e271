package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and print a token for the admin commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv("APPGATE_PASSWORD")
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimSpace(string(raw))
		}

		creds, err := api.Login(context.Background(), args[0], password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(creds)
			return nil
		}

		fmt.Fprintf(os.Stderr, "Logged in as %s (%s)\n", creds.Username, creds.Role)
		// Only the token goes to stdout, so it can be captured:
		//   export APPGATE_TOKEN=$(gatectl login admin)
		fmt.Println(creds.AccessToken)
		return nil
	},
}
