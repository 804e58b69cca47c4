package main

import (
	"log"

	"github.com/airsyncd/airsyncd/internal/adapter"
	"github.com/spf13/cobra"
)

const (
	FlagServer = "server"
	FlagToken  = "token"
)

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "easctl",
	Short: "Command-line client for the airsyncd synchronization API",
}

func main() {
	rootCmd.PersistentFlags().String(FlagServer, "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().String(FlagToken, "", "bearer token issued by register/login")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("rootCmd.Execute: %v", err)
	}
}

// adapterFromFlags builds the HTTP adapter from the persistent flags.
func adapterFromFlags(cmd *cobra.Command) adapter.ServerAdapter {
	server, err := cmd.Flags().GetString(FlagServer)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagServer, err)
	}
	token, err := cmd.Flags().GetString(FlagToken)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagToken, err)
	}

	return adapter.NewHTTPServerAdapter(adapter.HTTPClientConfig{
		BaseURL: server,
		Token:   token,
	})
}
