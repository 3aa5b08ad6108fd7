package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/questlog-backend/internal/app"
	"github.com/yungbote/questlog-backend/internal/modules/ingest"
)

func newIngestCmd() *cobra.Command {
	var (
		userFlag  string
		sinceFlag string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index a user's logs into searchable chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseIngestFlags(userFlag, sinceFlag)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return withApp(ctx, func(ctx context.Context, a *app.App) error {
				res, err := a.Ingest.Run(ctx, in)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(res)
			})
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user id (UUID)")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "only logs at or after this RFC3339 time")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func parseIngestFlags(user, since string) (ingest.Input, error) {
	uid, err := uuid.Parse(user)
	if err != nil {
		return ingest.Input{}, fmt.Errorf("--user must be a UUID: %w", err)
	}
	in := ingest.Input{UserID: uid}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return ingest.Input{}, fmt.Errorf("--since must be an RFC3339 timestamp: %w", err)
		}
		in.Since = &t
	}
	return in, nil
}
