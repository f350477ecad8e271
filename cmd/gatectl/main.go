package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/evn/appgate/pkg/gateclient"
)

var (
	serverAddr string
	token      string
	jsonOutput bool

	api *gateclient.Client
)

func defaultServer() string {
	if s := os.Getenv("APPGATE_SERVER"); s != "" {
		return s
	}
	return "http://localhost:6066"
}

func defaultToken() string {
	return os.Getenv("APPGATE_TOKEN")
}

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "CLI client for the appgate version gate service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = gateclient.New(serverAddr, gateclient.WithToken(token))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token for admin commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(gatesCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(loginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
