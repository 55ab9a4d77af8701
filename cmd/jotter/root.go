package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
	"github.com/dukerupert/jotter/internal/config"
	"github.com/dukerupert/jotter/internal/logging"
	"github.com/dukerupert/jotter/internal/notecrypt"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "jotter",
	Short:         "Personal notes with autosave, labels and public links",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("server") {
			cfg.Client.ServerURL, _ = cmd.Flags().GetString("server")
		}
		if cmd.Flags().Changed("token") {
			cfg.Client.Token, _ = cmd.Flags().GetString("token")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}

		logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the root command and prints any error.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err.Error()))
		return err
	}
	return nil
}

// newClient builds an API client from the loaded config. The note key is
// created on first use.
func newClient() (*client.Client, error) {
	cipher, err := notecrypt.New(cfg.Client.Cipher, notecrypt.NewFileKeyStore(cfg.Client.KeyPath))
	if err != nil {
		return nil, err
	}
	return client.New(client.Config{
		BaseURL: cfg.Client.ServerURL,
		Token:   cfg.Client.Token,
		Cipher:  cipher,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $JOTTER_CONFIG or the data dir config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "server URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}
