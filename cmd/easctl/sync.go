package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/airsyncd/airsyncd/models"
	"github.com/spf13/cobra"
)

const FlagFilePath = "file-path"

// GetSyncCmd returns the sync command. The request body is read as JSON
// from --file-path, or from stdin when the flag is omitted.
func GetSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Post a synchronization request and print the response",
		Run: func(cmd *cobra.Command, args []string) {
			filePath, err := cmd.Flags().GetString(FlagFilePath)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagFilePath, err)
			}

			request, err := readSyncRequest(filePath)
			if err != nil {
				log.Fatalf("read request: %v", err)
			}

			response, empty, err := adapterFromFlags(cmd).Sync(context.Background(), request)
			if err != nil {
				log.Fatalf("sync failed: %v", err)
			}
			if empty {
				fmt.Println("no changes")
				return
			}

			printJSON(response)
		},
	}
	cmd.Flags().String(FlagFilePath, "", "path to a JSON request file (stdin when omitted)")

	return cmd
}

func readSyncRequest(filePath string) (models.SyncRequest, error) {
	var request models.SyncRequest

	raw, err := readInput(filePath)
	if err != nil {
		return request, err
	}
	if err = json.Unmarshal(raw, &request); err != nil {
		return request, fmt.Errorf("decode request JSON: %w", err)
	}

	return request, nil
}

func readInput(filePath string) ([]byte, error) {
	if filePath == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filePath)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode response: %v", err)
	}
	fmt.Println(string(out))
}

func init() {
	rootCmd.AddCommand(GetSyncCmd())
}
