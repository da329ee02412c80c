// Command securecheck is the terminal client for the SecureCheck record store.
// It runs the same services as the API server directly against the database:
//
//	securecheck migrate
//	securecheck reports [-tier medium|complex]
//	securecheck run <report-id>
//	securecheck browse [filter flags]
//	securecheck recent [-limit n]
//	securecheck predict -violation V [-drugs]
//	securecheck add -vehicle V -date YYYY-MM-DD -time HH:MM ...
//	securecheck delete -vehicle V -time HH:MM[:SS]
//	securecheck export [-o file] [filter flags]
//
// Configuration comes from the same environment variables as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/pkordes/securecheck/internal/cache"
	"github.com/pkordes/securecheck/internal/config"
	"github.com/pkordes/securecheck/internal/repo"
	"github.com/pkordes/securecheck/internal/service"
	"github.com/pkordes/securecheck/migrations"
)

// errUsage marks errors caused by bad arguments; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	name, rest := args[0], args[1:]

	if _, ok := commands[name]; !ok && name != "migrate" {
		color.New(color.FgRed).Fprintf(stderr, "unknown command %q\n", name)
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	if name == "migrate" {
		n, err := migrations.Up(ctx, cfg.DatabaseURL)
		if err != nil {
			color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		color.New(color.FgGreen).Fprintf(stdout, "Applied %d migration(s)\n", n)
		return 0
	}

	a, cleanup, err := newApp(ctx, cfg, stderr)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	return exitCode(dispatch(ctx, a, name, rest, stdout), stderr)
}

// exitCode reports err on stderr and maps it to an exit status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		color.New(color.FgRed).Fprintln(stderr, err)
		return 2
	default:
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// newApp wires the services the same way the API server does. Logs go to
// stderr as text so they do not mix with table output.
func newApp(ctx context.Context, cfg config.Config, stderr io.Writer) (*app, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	connector, closeDB, err := repo.Open(ctx, cfg.DatabaseURL, cfg.DBPool)
	if err != nil {
		return nil, nil, err
	}
	cleanup := closeDB

	store := repo.NewStore(connector)
	stops := repo.NewStopRepo(store)

	var (
		invalidator service.Invalidator
		reportCache service.ReportCache
	)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewReportCache(ctx, cfg.RedisAddr, cfg.ReportCacheTTL)
		if err != nil {
			logger.Warn("report cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			invalidator, reportCache = rc, rc
			cleanup = func() {
				_ = rc.Close()
				closeDB()
			}
		}
	}

	return &app{
		stops:   service.NewStopService(stops, invalidator, logger, cfg.RecentLimit),
		reports: service.NewReportService(repo.NewReportRepo(store), reportCache, logger),
		export:  service.NewExportService(stops),
	}, cleanup, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: securecheck <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintf(w, "  %-9s %s\n", "migrate", "apply pending database migrations")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'securecheck <command> -h' for the flags of a command.")
}
