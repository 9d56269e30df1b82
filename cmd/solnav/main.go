package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"solnav/internal/core/config"
	"solnav/internal/shared/version"
)

var (
	configPath = flag.String("config", "./solnav.toml", "Path to config file")
	serve      = flag.Bool("serve", false, "Run an LSP session over stdio")
	def        = flag.String("def", "", "Resolve a definition target (file:line:column) and exit")
	lintOnce   = flag.Bool("lint", false, "Run a single lint pass and exit")
	lintOut    = flag.String("lint-out", "", "Write the lint summary as JSON to this path")
	watch      = flag.Bool("watch", false, "Watch project sources and re-lint on change")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	printVer   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *printVer {
		fmt.Printf("solnav v%s\n", version.Version)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *serve {
		// In serve mode, stdout carries the protocol; logs go to stderr.
		output = os.Stderr
	} else if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./solnav.toml" {
			cfg, err = config.Load("./solnav.example.toml")
		}
		if err != nil {
			if os.IsNotExist(err) {
				cfg = config.Default()
			} else {
				slog.Error("failed to load config", "error", err)
				os.Exit(1)
			}
		}
	}

	// A positional argument overrides the configured project root.
	if flag.NArg() > 0 {
		cfg.ProjectRoot = flag.Arg(0)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer app.Shutdown(context.Background())

	if err := app.StartObservability(ctx); err != nil {
		slog.Error("failed to start observability", "error", err)
		os.Exit(1)
	}

	switch {
	case *def != "":
		out, err := app.Definition(ctx, *def)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(out)

	case *serve:
		if err := app.Serve(ctx); err != nil && ctx.Err() == nil {
			slog.Error("lsp session failed", "error", err)
			os.Exit(1)
		}

	case *lintOnce:
		summary, err := app.LintProject(ctx)
		if err != nil {
			slog.Error("lint pass failed", "error", err)
			os.Exit(1)
		}
		app.PrintLintSummary(summary)
		if *lintOut != "" {
			if err := app.WriteLintReport(*lintOut, summary); err != nil {
				slog.Error("failed to write lint report", "path", *lintOut, "error", err)
				os.Exit(1)
			}
		}
		if summary.Errors > 0 {
			os.Exit(1)
		}

	case *watch || *ui:
		if err := app.StartWatcher(ctx); err != nil {
			slog.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		if *ui {
			if err := app.RunUI(ctx); err != nil {
				slog.Error("failed to run UI", "error", err)
				os.Exit(1)
			}
		} else {
			summary, err := app.LintProject(ctx)
			if err != nil {
				slog.Error("initial lint pass failed", "error", err)
				os.Exit(1)
			}
			app.PrintLintSummary(summary)
			<-ctx.Done()
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "solnav", "solnav.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "solnav", "solnav.log")
	}

	return "solnav.log"
}
