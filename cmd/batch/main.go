package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatlog-digest/internal/adapters/checklist"
	"chatlog-digest/internal/adapters/report"
	"chatlog-digest/internal/app"
	"chatlog-digest/internal/infra/config"
	applog "chatlog-digest/internal/infra/log"
	"chatlog-digest/internal/usecase/batch"
)

type options struct {
	out    string
	delay  time.Duration
	target int
	json   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := options{delay: cfg.Batch.RequestDelay, target: cfg.Analysis.FixedTarget}

	cmd := &cobra.Command{
		Use:   "batch [checklist]",
		Short: "Построить отчёты о темах по списку чатов",
		Long: "Читает markdown-список чатов, строит по каждому отчёт о темах обсуждения\n" +
			"и сохраняет его вместе со страницей-оглавлением index.html.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Batch.Checklist
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd.Context(), cfg, path, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "каталог отчётов (по умолчанию REPORT_DIR/chatlog_reports_YYYYMMDD)")
	cmd.Flags().DurationVar(&opts.delay, "delay", opts.delay, "пауза между запросами к сервису истории")
	cmd.Flags().IntVar(&opts.target, "target", opts.target, "число тем в отчёте (0 — по объёму переписки)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "вывести итог в stdout в JSON")
	return cmd
}

func run(parent context.Context, cfg config.AppConfig, path string, opts options) error {
	logger := applog.NewConsoleLogger(cfg.AppEnv)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.target < 0 {
		return fmt.Errorf("--target должен быть неотрицательным: %d", opts.target)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := checklist.WriteTemplate(path); err != nil {
			return err
		}
		logger.Warn().Str("path", path).Msg("batch: список чатов не найден, создан шаблон, заполните его и запустите снова")
		return nil
	}

	pipeline, err := app.NewPipeline(cfg, app.NewCache(nil), logger)
	if err != nil {
		return err
	}
	now := time.Now().In(pipeline.Location)
	entries, err := checklist.ParseFile(path, now)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Warn().Str("path", path).Msg("batch: список чатов пуст")
		return nil
	}
	if err := pipeline.Client.Ping(ctx); err != nil {
		return fmt.Errorf("сервис истории недоступен (%s): %w", cfg.Chatlog.BaseURL, err)
	}

	dir := opts.out
	if dir == "" {
		dir = filepath.Join(cfg.Batch.ReportDir, "chatlog_reports_"+now.Format("20060102"))
	}
	html := report.NewHTMLRenderer()
	renderers := map[string]batch.Renderer{"HTML": html, "JSON": report.JSONRenderer{}}
	runner := batch.NewRunner(pipeline.Analysis, renderers, html, report.NewWriter(dir), opts.delay, opts.target, logger)

	targets := make([]batch.Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, batch.Target{Chat: e.Name, Period: e.Period, Format: e.Format, DateFallback: e.DateFallback})
	}

	summary, err := runner.Run(ctx, targets)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Printf("готово: %d отчётов, %d пропущено, каталог %s\n", summary.Generated, summary.Skipped, summary.OutputDir)
	return nil
}
