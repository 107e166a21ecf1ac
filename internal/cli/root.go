package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matjam/wlcore"
	"github.com/matjam/wlcore/internal/cli/cmd"
	"github.com/matjam/wlcore/internal/cli/cmd/utils"
	"github.com/matjam/wlcore/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wlcore",
	Short: "Input and buffer import core for a Wayland compositor",
	Long: `wlcore tracks input devices and seat state, synthesizes key repeat,
and imports client dma-buf and shm buffers into GPU textures, including
across GPUs. Run "wlcore serve" to start it; the other commands talk to
a running instance over its control socket.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, err := cmd.Flags().GetBool("installconfig"); err == nil && v {
			path, err := config.Install(wlcore.DefaultConfig)
			switch {
			case errors.Is(err, os.ErrExist):
				log.Warnf("Config file already exists at %v", path)
			case err != nil:
				log.Fatalf("Error installing config: %v", err)
			default:
				log.Infof("Installed default config file at %v", path)
			}
			return
		}

		if v, err := cmd.Flags().GetBool("show-config"); err == nil && v {
			log.Infof("Using config file: %v", viper.ConfigFileUsed())
			log.Infof("All settings:")
			utils.PrintJSONColored(viper.AllSettings())
			return
		}

		babyBlue := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
		yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
		if v, err := cmd.Flags().GetBool("version"); err == nil && v {
			log.Infof("%v version %v © 2025 %v",
				babyBlue.Render("wlcore"),
				green.Render(strings.Trim(wlcore.Version, "\n\r ")),
				yellow.Render("Nathan Ollerenshaw"))
			return
		}

		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)
	RegisterFlags(rootCmd)

	rootCmd.AddCommand(
		cmd.NewServeCmd(),
		cmd.NewStatusCmd(),
		cmd.NewDevicesCmd(),
		cmd.NewFormatsCmd(),
		cmd.NewConfineCmd(),
		cmd.NewMonitorCmd(),
		cmd.NewStopCmd(),
		cmd.NewGenManCmd(rootCmd),
	)
}
