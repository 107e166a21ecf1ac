package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/wlcore/internal/cli/cmd/utils"
	"github.com/matjam/wlcore/internal/ipc"
)

func NewMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Stream input and seat events from the running instance",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := utils.Client()
			defer client.Close()

			err := client.Monitor(ctx, func(ev ipc.StreamEvent) {
				if ev.Event == nil {
					log.Info(ev.Kind, "device", ev.Device)
					return
				}
				log.Info(ev.Kind, "device", ev.Device, "event", ev.Event)
			})
			if err != nil && ctx.Err() == nil {
				log.Fatalf("Event stream failed: %v", err)
			}
		},
	}
}
