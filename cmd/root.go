package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"asset-pipeline/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "asset-pipeline",
	Short: "Game asset export and sync pipeline",
	Long: `Asset Pipeline converts authored models, materials and textures into
publishable artifacts and keeps an S3-compatible bucket in sync with them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	// Ctrl-C cancels the running command; in-flight transfers finish, nothing new starts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Console format with the development config gives readable timestamps for CLI use.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
