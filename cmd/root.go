package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fmjrey/chkodf/config"
	"github.com/fmjrey/chkodf/document"
	"github.com/fmjrey/chkodf/httppool"
	"github.com/fmjrey/chkodf/logging"
	"github.com/fmjrey/chkodf/probe"
	"github.com/fmjrey/chkodf/resolver"
	"github.com/fmjrey/chkodf/result"
	"github.com/fmjrey/chkodf/tui"
	"github.com/fmjrey/chkodf/wiki"
)

// ErrLinksFailed is returned when the run completed but found broken links.
var ErrLinksFailed = errors.New("broken links found")

// Execute builds the command tree and runs it.
// This is called by main.main().
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "chkodf [flags] <document.html>",
		Short: "Check the links of a document and point encyclopedia links at its language",
		Long: `chkodf checks every hyperlink of an HTML document. Links answering 200
are fine, redirects are reported with their final target, http links are
upgraded to https when the secure URL works, and encyclopedia articles in
another language are replaced by the equivalent article in the document's
language when one exists.

Each distinct URL is probed at most once, however often it appears.`,
		Args:          cobra.ExactArgs(1),
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chkodf.yaml)")

	d := config.Default()
	flags := rootCmd.Flags()
	flags.StringP("lang", "l", "", "document language (default: the <html lang> attribute)")
	flags.IntP("concurrency", "c", d.Concurrency, "links resolved at once, 1 is sequential")
	flags.Duration("request-timeout", d.RequestTimeout, "timeout of each request")
	flags.Float64("rate-limit", d.RateLimit, "requests per second across all hosts, 0 for unlimited")
	flags.Int("max-conns-per-host", d.MaxConnsPerHost, "concurrent connections per host")
	flags.Duration("idle-conn-timeout", d.IdleConnTimeout, "how long idle connections are kept")
	flags.Int("max-redirects", d.MaxRedirects, "redirects followed before reporting a loop")
	flags.String("user-agent", d.UserAgent, "User-Agent sent with every request")
	flags.String("wiki-site", d.WikiSite, "encyclopedia domain whose articles are translated")
	flags.String("wiki-api-endpoint", d.WikiAPIEndpoint, "langlinks API URL template ({lang} and {site} are substituted)")
	flags.Bool("respect-robots", d.RespectRobots, "warn about links disallowed by robots.txt")
	flags.Bool("cookies", d.Cookies, "keep cookies across the redirects of each probe")
	flags.StringP("format", "f", d.Format, "report format (text, json, csv, yaml)")
	flags.Bool("tui", d.TUI, "show an interactive progress view")
	flags.StringP("output", "o", d.Output, "write the document with replaced links to this file")
	flags.String("log-level", d.Log.Level, "log level (trace, debug, info, warn, error)")
	flags.String("log-format", d.Log.Format, "log format (console, json)")
	flags.String("log-file", d.Log.File, "also log to this file, rotated by size")
	flags.Int("log-max-size-mb", d.Log.MaxSizeMB, "log file size before rotation")
	flags.Int("log-max-backups", d.Log.MaxBackups, "rotated log files kept")

	rootCmd.AddCommand(newConfigCmd(&cfgFile))
	return rootCmd
}

func run(ctx context.Context, cfg *config.Config, path string, stdout, stderr io.Writer) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	lang := cfg.Lang
	if lang == "" {
		lang = doc.Language
	}
	if lang == "" {
		return fmt.Errorf("%s declares no language: set --lang", path)
	}

	console := stderr
	if cfg.TUI {
		console = nil
	}
	logger, closer, err := logging.New(cfg.Log, console)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := httppool.New(cfg.PoolConfig())
	defer pool.Close()

	checkerOpts := []probe.CheckerOption{probe.WithLogger(logger)}
	if cfg.RespectRobots {
		checkerOpts = append(checkerOpts, probe.WithRobots(probe.NewRobotsChecker(pool)))
	}
	translator := wiki.New(pool, cfg.WikiConfig(), logger)
	events := make(chan resolver.Event, 100)
	processor := resolver.New(resolver.Config{
		Language:    lang,
		Concurrency: cfg.Concurrency,
		Cookies:     cfg.Cookies,
	}, resolver.Deps{
		Checker:    probe.New(pool, checkerOpts...),
		Translator: translator,
		Events:     events,
		Logger:     logger,
	})

	logger.Info().
		Str("document", path).
		Int("links", len(doc.Hrefs)).
		Str("lang", lang).
		Str("wiki_site", translator.Site()).
		Dur("request_timeout", pool.RequestTimeout()).
		Msg("checking document")

	var (
		report *result.Report
		runErr error
	)
	if cfg.TUI {
		report, runErr = runTUI(ctx, processor, doc.Hrefs, events)
	} else {
		report, runErr = runPlain(ctx, processor, doc.Hrefs, events, cfg.Format, stdout)
	}
	if report != nil && cfg.Format != "text" {
		if err := result.Write(stdout, cfg.Format, report); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if report == nil {
		return errors.New("run aborted")
	}

	if cfg.Output != "" {
		if err := writeDocument(doc, report, cfg.Output, logger); err != nil {
			return err
		}
	}
	if report.HasFailures() {
		return ErrLinksFailed
	}
	return nil
}

// runPlain prints each result as it resolves when format is text, then the
// summary. Results whose event was dropped by cancellation are printed last.
func runPlain(ctx context.Context, processor *resolver.Processor, hrefs []string, events chan resolver.Event, format string, stdout io.Writer) (*result.Report, error) {
	text := format == "text"
	printed := make(map[string]bool)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range events {
			if text {
				result.PrintResult(stdout, evt.Result)
				printed[evt.Result.URL] = true
			}
		}
	}()

	report, err := processor.Run(ctx, hrefs)
	close(events)
	<-done

	if text && report != nil {
		for _, res := range report.Results {
			if !printed[res.URL] {
				result.PrintResult(stdout, res)
			}
		}
		_, _ = fmt.Fprintln(stdout)
		result.PrintSummary(stdout, report)
	}
	return report, err
}

// runTUI runs the interactive view, which renders the summary itself.
func runTUI(ctx context.Context, processor *resolver.Processor, hrefs []string, events chan resolver.Event) (*result.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(ctx, cancel, processor, hrefs, events)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("run tui: %w", err)
	}
	m, ok := final.(tui.Model)
	if !ok {
		return nil, fmt.Errorf("run tui: unexpected model %T", final)
	}
	return m.Report(), m.Err()
}

func writeDocument(doc *document.Document, report *result.Report, path string, logger zerolog.Logger) error {
	changed := doc.Rewrite(report.Replacements)
	if err := doc.Save(path); err != nil {
		return err
	}
	logger.Info().Str("output", path).Int("rewritten", changed).Msg("document written")
	return nil
}
