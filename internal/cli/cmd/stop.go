package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/wlcore/internal/cli/cmd/utils"
)

func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the wlcore daemon",
		Run: func(cmd *cobra.Command, args []string) {
			client := utils.Client()
			defer client.Close()

			if err := client.Stop(); err != nil {
				log.Fatalf("Failed to send 'stop' command: %v", err)
			}
			log.Info("Stop command sent")
		},
	}
}
