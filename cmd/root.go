package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/runner"
)

var (
	configFile string
	appConfig  Config
)

var rootCmd = &cobra.Command{
	Use:   "sitetasks",
	Short: "Build, preview and publish the ReachTim site",
	Long: `sitetasks drives the Pelican static site generator for ReachTim:
it renders the settings files, builds the site, serves the output locally
and mirrors it to the production host with rsync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		appConfig = *cfg
		return nil
	},
}

// Execute runs the command line and exits with the failing tool's exit
// code, or 1 for any other error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, err)
	if code, ok := runner.ExitCode(err); ok && code > 0 {
		os.Exit(code)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./sitetasks.yaml)")
	rootCmd.PersistentFlags().String("deploy-path", "reachtim", "local output directory")
	rootCmd.PersistentFlags().IntP("port", "p", 8000, "local preview server port")

	bindFlag("deploy_path", rootCmd.PersistentFlags().Lookup("deploy-path"))
	bindFlag("port", rootCmd.PersistentFlags().Lookup("port"))
}
