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

	"github.com/sporetrack/sporetrack/internal/backup"
	"github.com/sporetrack/sporetrack/internal/inventory"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger builds the structured logger. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string, stdout, stderr io.Writer) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
	return slog.New(handler), cleanup, nil
}

const usage = `Usage: sporetrack [flags] <command> [args]

Commands:
  checkin <barcode> <location>       return a checked-out item to stock
  checkout <barcode>                 take an item out of stock
  move <barcode> <location>          move an in-stock item
  batch <barcode> <count> <location> create count new items for a batch
                                     (PIPI_08_07_25_G2 or any item barcode)
  location add <name>                register a location
  location list                      list locations with in-stock counts
  show <barcode>                     show an item and its history
  note <barcode> <text>              set the note on an item
  items [filters]                    list items (see: sporetrack items -h)
  report [-x, -xlsx <path>]          stock summary, optionally as a workbook
  scan in <location> | out | move <location>
                                     read barcodes from stdin until "finish"
  backup                             write a snapshot of the database
  serve [-a, -addr <host:port>]      read-only JSON API and /metrics (default: 127.0.0.1:8080)

Flags:
  -d, -db <path>          SQLite database path (default: sporetrack.sqlite3)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -m, -metrics <path>     write Prometheus metrics to this textfile after each command
  -b, -backup-dir <dir>   snapshot directory (default: backup)
  -k, -keep <n>           snapshots to keep, 0 keeps all (default: 0)
  -h, -help               show this help and exit
`

// config holds the global flags.
type config struct {
	dbPath      string
	logPath     string
	metricsPath string
	backupDir   string
	keep        int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code: 0 on success,
// 1 when the command failed and 2 for usage errors.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sporetrack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cfg config
	fs.StringVar(&cfg.dbPath, "db", "sporetrack.sqlite3", "")
	fs.StringVar(&cfg.dbPath, "d", "sporetrack.sqlite3", "")
	fs.StringVar(&cfg.logPath, "log", "", "")
	fs.StringVar(&cfg.logPath, "l", "", "")
	fs.StringVar(&cfg.metricsPath, "metrics", "", "")
	fs.StringVar(&cfg.metricsPath, "m", "", "")
	fs.StringVar(&cfg.backupDir, "backup-dir", backup.DefaultDir, "")
	fs.StringVar(&cfg.backupDir, "b", backup.DefaultDir, "")
	fs.IntVar(&cfg.keep, "keep", 0, "")
	fs.IntVar(&cfg.keep, "k", 0, "")

	fs.Usage = func() { fmt.Fprint(stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logger, closeLog, err := setupLogger(cfg.logPath, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	engine, err := inventory.Open(ctx, cfg.dbPath, inventory.WithLogger(logger))
	if err != nil {
		if errors.Is(err, inventory.ErrCorrupt) {
			logger.Error("store is corrupted, restore it from a backup", "path", cfg.dbPath, "error", err)
		} else {
			logger.Error("failed to open store", "path", cfg.dbPath, "error", err)
		}
		return 1
	}
	defer engine.Close()

	c := &cli{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
	}
	code := c.dispatch(ctx, fs.Arg(0), fs.Args()[1:])

	if cfg.metricsPath != "" {
		if err := engine.Metrics().WriteTextfile(cfg.metricsPath); err != nil {
			logger.Error("failed to write metrics", "path", cfg.metricsPath, "error", err)
			if code == 0 {
				code = 1
			}
		}
	}
	return code
}
