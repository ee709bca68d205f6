package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldwise/bridge/pkg/config"
	"github.com/fieldwise/bridge/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fieldwise-bridge",
	Short: "Streaming chat bridge for the Fieldwise agent backend",
	Long: `fieldwise-bridge sits between the Fieldwise agent backend and its
clients: it ingests the backend's event feed, re-encodes it for the web
widget and batch callers, and ships a headless chat client for the
command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return logger.Init(settings.Logging.Level, settings.Logging.LogFile, settings.Logging.Persist)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default searched in ./.fieldwise and XDG config)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	bindFlag("logging.level", "log-level")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}
