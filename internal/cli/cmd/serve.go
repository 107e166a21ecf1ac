package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/matjam/wlcore/internal/cli/cmd/utils"
	"github.com/matjam/wlcore/internal/logging"
	"github.com/matjam/wlcore/internal/server"
)

func NewServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the input and graphics core",
		Long: `Starts the seat, key repeat and device monitor, opens the EGL display
for buffer import and serves the control socket.`,
		Run: func(cmd *cobra.Command, args []string) {
			background, _ := cmd.Flags().GetBool("background")
			if background {
				daemonize()
				return
			}
			serve()
		},
	}
	c.Flags().BoolP("background", "b", false, "Run as a daemon")
	return c
}

// daemonize re-executes wlcore detached from the terminal. The parent
// returns as soon as the child is started; the child serves.
func daemonize() {
	dir := logging.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Error creating state directory: %v", err)
	}

	ctx := &daemon.Context{
		PidFileName: filepath.Join(dir, "wlcore.pid"),
		PidFilePerm: 0644,
		WorkDir:     "/",
		Umask:       027,
		Args:        os.Args,
		Env:         append(os.Environ(), "BACKGROUND_PROCESS=1"),
	}

	child, err := ctx.Reborn()
	if err != nil {
		log.Fatalf("Failed to start in the background: %v", err)
	}
	if child != nil {
		log.Infof("wlcore started in the background with PID %d, logging to %s", child.Pid, dir)
		return
	}
	defer ctx.Release()
	serve()
}

func serve() {
	cfg := utils.LoadConfig()

	if os.Getenv("BACKGROUND_PROCESS") == "1" {
		if err := logging.SetupRotating(logging.Dir(), cfg.Debug); err != nil {
			log.Fatalf("Failed to set up logging: %v", err)
		}
	}
	log.Infof("wlcore started in PID: %d", os.Getpid())

	client := utils.Client()
	_, err := client.Status()
	client.Close()
	if err == nil {
		log.Infof("wlcore is already running, exiting")
		return
	}

	srv, err := server.New(cfg, server.Options{})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Errorf("wlcore exited with errors: %v", err)
		os.Exit(1)
	}
}
