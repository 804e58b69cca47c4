package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/airsyncd/airsyncd/models"
	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const FlagCollections = "collections"

// GetWatchCmd returns the watch command. It subscribes to the change feed
// over a websocket and prints each event as a JSON line.
func GetWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream change notifications for the given collections",
		Run: func(cmd *cobra.Command, args []string) {
			server, err := cmd.Flags().GetString(FlagServer)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagServer, err)
			}
			token, err := cmd.Flags().GetString(FlagToken)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagToken, err)
			}
			collections, err := cmd.Flags().GetStringSlice(FlagCollections)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagCollections, err)
			}

			if err := watchChanges(cmd.Context(), server, token, collections); err != nil {
				log.Fatalf("watch failed: %v", err)
			}
		},
	}
	cmd.Flags().StringSlice(FlagCollections, nil, "collection IDs to watch (all when omitted)")

	return cmd
}

func watchChanges(ctx context.Context, server, token string, collections []string) error {
	url := websocketURL(server)
	if len(collections) > 0 {
		url += "?collections=" + strings.Join(collections, ",")
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		var event models.ChangeEvent
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		fmt.Printf("%s collection=%s seq=%d\n", event.At.Format(time.RFC3339), event.CollectionID, event.Seq)
	}
}

func websocketURL(server string) string {
	url := strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/api/notify"
}

func init() {
	rootCmd.AddCommand(GetWatchCmd())
}
