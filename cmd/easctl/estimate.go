package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

const (
	FlagCollectionID = "collection-id"
	FlagSyncKey      = "sync-key"
)

// GetEstimateCmd returns the estimate command.
func GetEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Count the changes a Sync with the given key would deliver",
		Run: func(cmd *cobra.Command, args []string) {
			collectionID, err := cmd.Flags().GetString(FlagCollectionID)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagCollectionID, err)
			}
			syncKey, err := cmd.Flags().GetString(FlagSyncKey)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagSyncKey, err)
			}

			response, err := adapterFromFlags(cmd).Estimate(context.Background(), collectionID, syncKey)
			if err != nil {
				log.Fatalf("estimate failed: %v", err)
			}

			printJSON(response)
		},
	}
	cmd.Flags().String(FlagCollectionID, "", "collection to estimate")
	cmd.Flags().String(FlagSyncKey, "0", "synchronization key (\"0\" for a full estimate)")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetEstimateCmd())
}
