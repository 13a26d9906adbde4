// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sub2md CLI, which downloads the
// posts of a Substack publication and saves them as Markdown and HTML.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sub2md/internal/logging"
	"github.com/pdiddy/sub2md/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built from --debug and the log.* settings before any
	// command runs.
	logger logging.Logger = logging.Nop()

	// loadedSecrets holds credentials loaded from the secrets directory.
	loadedSecrets secrets.Store
)

// rootCmd is the base command for the sub2md CLI.
var rootCmd = &cobra.Command{
	Use:   "sub2md",
	Short: "Save a Substack publication as Markdown",
	Long: `sub2md discovers the posts of a Substack publication, downloads each
post page, converts the article body to Markdown and writes one file per
post, with an optional standalone HTML page, a post index, and a SQLite
catalog of everything fetched.

Paid posts visible to a subscriber can be fetched by placing the value of the
substack.sid cookie in .secrets/substack-sid.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log.level")
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = "debug"
		}
		log, err := logging.New("sub2md", logging.Config{
			Level:  level,
			Format: viper.GetString("log.format"),
		})
		if err != nil {
			return err
		}
		logger = log

		s, err := secrets.Load(viper.GetString("secrets-dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sub2md.yaml or ~/.config/sub2md/sub2md.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console, json, or pretty")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files")

	viper.SetDefault("log.level", "info")
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("secrets-dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sub2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sub2md"))
		}
	}

	viper.SetEnvPrefix("SUB2MD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
