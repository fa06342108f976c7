package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"jobwatch/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a synthetic match through the configured notifier to verify delivery.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Board.Timeout}
	n := setupNotifier(cfg, httpClient, logger)

	receipt := notifier.SendTestMatch(n)
	if !receipt.Success {
		logger.Error("test notification failed", "error", receipt.Err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully", "message_id", receipt.MessageID)
	return nil
}
