// Основной пакет утилиты richdoc. Преобразует документы между markdown, HTML и TipTap JSON,
// запускает HTTP API и выводит схему документа.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aisa-it/richdoc/internal/richdoc/config"
)

var version string = "DEV"

var rootCmd = &cobra.Command{
	Use:           "richdoc",
	Short:         "Rich text document converter and editing service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.ReadConfig()
		if err != nil {
			return err
		}
		cfg = c
		if trace {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		} else {
			slog.SetLogLoggerLevel(cfg.Level())
		}
		// Set prod log format
		if version != "DEV" {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))
		}
		return nil
	},
}

var (
	cfg   *config.Config
	trace bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "Verbose logs and sql trace")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "err", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "richdoc version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
