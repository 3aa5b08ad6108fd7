package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/questlog-backend/internal/app"
)

// loadConfig is swapped in tests.
var loadConfig = app.LoadConfig

// NewRootCmd creates the top-level "questlog" command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "questlog",
		Short:         "Life-log chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newIngestCmd(),
		newTokenCmd(),
	)
	return root
}

// withApp loads the config, connects the stores and hands the app to fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Log.Sync()
	return fn(ctx, a)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
