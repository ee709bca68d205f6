package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwise/bridge/pkg/config"
	"github.com/fieldwise/bridge/pkg/headless"
)

var chatPrompt string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send one prompt through the bridge and stream the answer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatPrompt == "" {
			return fmt.Errorf("--prompt is required")
		}

		settings := config.Get()
		runner := headless.NewRunner(settings.Chat.BridgeURL, settings.Chat.ThreadID)
		return runner.Run(context.Background(), chatPrompt)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatPrompt, "prompt", "p", "", "prompt to send")
	rootCmd.AddCommand(chatCmd)
}
