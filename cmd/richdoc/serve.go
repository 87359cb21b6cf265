package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
	"github.com/aisa-it/richdoc/internal/richdoc/gormlogger"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
	"github.com/aisa-it/richdoc/internal/richdoc/server"
	"github.com/aisa-it/richdoc/internal/richdoc/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversion and editing HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var paramQueries bool

func init() {
	serveCmd.Flags().BoolVar(&paramQueries, "paramQueries", true, "Mask queries params in log")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	PrintBanner(cmd)
	slog.Info("richdoc start.")

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "richdoc",
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))
	if err := prometheus.Register(bootTimeGauge); err != nil {
		return err
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	reg, err := nodes.NewSchema()
	if err != nil {
		slog.Error("Build document schema", "err", err)
		return err
	}
	var mdOpts []markdown.Option
	if !cfg.MarkdownExtensions {
		mdOpts = append(mdOpts, markdown.WithoutExtensions())
	}
	conv, err := convert.New(reg, m, mdOpts...)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithMetrics(m), server.WithVersion(version)}
	if cfg.DatabasePath != "" {
		st, err := store.Open(cfg.DatabasePath, reg, gormlogger.NewGormLogger(slog.Default(), 4*time.Second, paramQueries), m)
		if err != nil {
			slog.Error("Fail init snapshots DB", "err", err)
			return err
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, conv, opts...).Run(ctx)
}

// PrintBanner выводит название и версию при запуске сервера.
func PrintBanner(cmd *cobra.Command) {
	formattedVersion := version
	if version == "DEV" {
		formattedVersion = "\033[33m" + version + "\033[0m"
	}
	cmd.Printf("richdoc %s\nRich text documents: markdown, html, tiptap json\n----------------------------------------------------\n", formattedVersion)
}
