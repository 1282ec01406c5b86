package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"surveyor/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set up global panic handler first
	defer func() {
		if r := recover(); r != nil {
			log.Error("GLOBAL PANIC recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "surveyor crashed: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first signal cancels the run; a second one exits immediately.
	signalChan := make(chan os.Signal, 2)
	signal.Notify(signalChan, syscall.SIGABRT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		log.Info("signal received", "signal", sig.String())
		cancel()
		sig = <-signalChan
		log.Error("SIGNAL RECEIVED", "signal", sig.String(), "stack", string(debug.Stack()))
		os.Exit(1)
	}()

	// Log every 30 seconds that we're alive
	go func() {
		for {
			time.Sleep(30 * time.Second)
			log.Debug("HEARTBEAT: surveyor is alive")
		}
	}()

	err := newRootCmd().ExecuteContext(ctx)
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "surveyor",
		Short: "Plot and route resource surveys from chat logs",
		Long: `Surveyor tails the newest chat log in a directory, collects survey
sightings into batches, plans a short walking route through them and shows
the result on a map. It runs a terminal UI when stdout is a terminal and
prints one JSON state per update otherwise.`,
		Version:      fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage: true,
		RunE:         runRoot,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/surveyor/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("dir", "", "Chat log directory to watch")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a log directory without the terminal UI",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	watchCmd.Flags().String("dir", "", "Chat log directory to watch")
	watchCmd.Flags().Bool("inline", false, "Draw the route as a sixel image after every update")
	watchCmd.Flags().Bool("dither", false, "Dither the inline image instead of using a fixed palette")
	watchCmd.Flags().Int("cols", 80, "Inline image width in terminal cells")
	watchCmd.Flags().Int("rows", 24, "Inline image height in terminal cells")

	routeCmd := &cobra.Command{
		Use:   "route FILE",
		Short: "Replay a chat log and print the planned route",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoute,
	}
	routeCmd.Flags().Int("batch", 0, "Batch size (default from config)")
	routeCmd.Flags().String("zone", "", "Zone to assume before the first zone line")
	routeCmd.Flags().String("png", "", "Also render the route to this PNG file")

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Print per-resource totals from the journal",
		Args:  cobra.NoArgs,
		RunE:  runJournal,
	}
	journalCmd.Flags().String("path", "", "Journal database (default from config)")

	rootCmd.AddCommand(watchCmd, routeCmd, journalCmd)
	return rootCmd
}
