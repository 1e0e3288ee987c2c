package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(accountsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "propertyctl",
	Short: "Operator tool for the property transaction coordinator",
	Long: `propertyctl talks to the same ledger, database and Redis as the API server,
configured from the environment and .env.

It rebuilds the property registry from ledger events, lists the cached properties
and shows the ledger accounts available for signing.`,
	SilenceUsage: true,
}
