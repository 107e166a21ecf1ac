package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/wlcore/internal/cli/cmd/utils"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get wlcore status",
		Long:  `Returns the current status of the running wlcore process.`,
		Run: func(cmd *cobra.Command, args []string) {
			client := utils.Client()
			defer client.Close()

			response, err := client.Status()
			if err != nil {
				log.Errorf("Error sending command: %v", err)
				return
			}

			utils.PrintJSONColored(response)
		},
	}
}

func NewDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List input devices and the seat's device state",
		Run: func(cmd *cobra.Command, args []string) {
			client := utils.Client()
			defer client.Close()

			response, err := client.Devices()
			if err != nil {
				log.Errorf("Error sending command: %v", err)
				return
			}

			utils.PrintJSONColored(response)
		},
	}
}

func NewFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the dma-buf formats and modifiers wlcore can import",
		Run: func(cmd *cobra.Command, args []string) {
			client := utils.Client()
			defer client.Close()

			response, err := client.Formats()
			if err != nil {
				log.Errorf("Error sending command: %v", err)
				return
			}
			if !response.Graphics {
				log.Warn("graphics are disabled in the running instance")
				return
			}
			for _, f := range response.Formats {
				log.Infof("%-10s %d modifiers", f.Format, len(f.Modifiers))
			}
		},
	}
}
