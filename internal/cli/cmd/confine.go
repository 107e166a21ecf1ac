package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/wlcore/internal/cli/cmd/utils"
)

func NewConfineCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "confine [WxH+X+Y] ...",
		Short: "Confine the cursor to a set of regions",
		Long: `Confines the cursor of the running instance to the union of the
given regions. With --reset the confinement is removed instead.`,
		Run: func(cmd *cobra.Command, args []string) {
			reset, _ := cmd.Flags().GetBool("reset")
			if !reset && len(args) == 0 {
				log.Fatal("No regions given, use --reset to remove the confinement")
			}

			client := utils.Client()
			defer client.Close()

			if reset {
				if err := client.ResetConfinement(); err != nil {
					log.Fatalf("Failed to reset confinement: %v", err)
				}
				log.Info("Cursor confinement reset")
				return
			}
			if err := client.Confine(args); err != nil {
				log.Fatalf("Failed to confine cursor: %v", err)
			}
			log.Infof("Cursor confined to %d regions", len(args))
		},
	}
	c.Flags().BoolP("reset", "r", false, "Remove the cursor confinement")
	return c
}
