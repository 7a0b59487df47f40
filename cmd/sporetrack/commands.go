package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sporetrack/sporetrack/internal/backup"
	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/inventory"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/report"
	"github.com/sporetrack/sporetrack/internal/store"
)

// cli carries what every subcommand needs.
type cli struct {
	cfg    config
	engine *inventory.Engine
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) int {
	switch cmd {
	case "checkin":
		return c.checkIn(ctx, args)
	case "checkout":
		return c.checkOut(ctx, args)
	case "move":
		return c.move(ctx, args)
	case "batch":
		return c.batch(ctx, args)
	case "location":
		return c.location(ctx, args)
	case "show":
		return c.show(ctx, args)
	case "note":
		return c.note(ctx, args)
	case "items":
		return c.items(ctx, args)
	case "report":
		return c.report(ctx, args)
	case "scan":
		return c.scan(ctx, args)
	case "backup":
		return c.backup(ctx)
	case "serve":
		return c.serve(ctx, args)
	default:
		fmt.Fprintf(c.stderr, "unknown command: %s\n", cmd)
		fmt.Fprint(c.stdout, usage)
		return 2
	}
}

func (c *cli) usageError(format string, args ...any) int {
	fmt.Fprintf(c.stderr, "usage: sporetrack "+format+"\n", args...)
	return 2
}

// fail logs err with the command context and returns the failure exit code.
func (c *cli) fail(msg string, err error, attrs ...any) int {
	c.logger.Error(msg, append(attrs, "error", err)...)
	return 1
}

func (c *cli) checkIn(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return c.usageError("checkin <barcode> <location>")
	}
	item, err := c.engine.CheckIn(ctx, args[0], args[1])
	if err != nil {
		return c.fail("check-in failed", err, "barcode", args[0], "location", args[1])
	}
	fmt.Fprintf(c.stdout, "%s checked in at %s\n", item.Barcode, item.Location)
	return 0
}

func (c *cli) checkOut(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return c.usageError("checkout <barcode>")
	}
	item, err := c.engine.CheckOut(ctx, args[0])
	if err != nil {
		return c.fail("check-out failed", err, "barcode", args[0])
	}
	fmt.Fprintf(c.stdout, "%s checked out from %s\n", item.Barcode, item.Location)
	return 0
}

func (c *cli) move(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return c.usageError("move <barcode> <location>")
	}
	item, err := c.engine.Move(ctx, args[0], args[1])
	if err != nil {
		return c.fail("move failed", err, "barcode", args[0], "location", args[1])
	}
	fmt.Fprintf(c.stdout, "%s moved to %s\n", item.Barcode, item.Location)
	return 0
}

func (c *cli) batch(ctx context.Context, args []string) int {
	if len(args) != 3 {
		return c.usageError("batch <barcode> <count> <location>")
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return c.usageError("batch <barcode> <count> <location>: count %q is not a number", args[1])
	}

	items, err := c.engine.CreateBatchFromBarcode(ctx, args[0], count, args[2])
	if err != nil {
		return c.fail("batch creation failed", err, "barcode", args[0], "count", count, "location", args[2])
	}
	for _, item := range items {
		fmt.Fprintln(c.stdout, item.Barcode)
	}
	return 0
}

func (c *cli) location(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return c.usageError("location add <name> | location list")
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return c.usageError("location add <name>")
		}
		loc, err := c.engine.AddLocation(ctx, args[1])
		if err != nil {
			return c.fail("adding location failed", err, "location", args[1])
		}
		fmt.Fprintf(c.stdout, "location %s added\n", loc.Name)
		return 0
	case "list":
		locs, err := c.engine.Locations(ctx)
		if err != nil {
			return c.fail("listing locations failed", err)
		}
		counts, err := c.engine.LocationInventory(ctx)
		if err != nil {
			return c.fail("counting inventory failed", err)
		}
		for _, loc := range locs {
			fmt.Fprintf(c.stdout, "%s\t%d\n", loc.Name, counts[loc.Name])
		}
		return 0
	default:
		return c.usageError("location add <name> | location list")
	}
}

func (c *cli) show(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return c.usageError("show <barcode>")
	}
	item, err := c.engine.Item(ctx, args[0])
	if err != nil {
		return c.fail("lookup failed", err, "barcode", args[0])
	}
	if err := report.WriteItem(c.stdout, item); err != nil {
		return c.fail("printing item failed", err)
	}
	return 0
}

func (c *cli) note(ctx context.Context, args []string) int {
	if len(args) < 1 {
		return c.usageError("note <barcode> <text>")
	}
	text := strings.Join(args[1:], " ")
	item, err := c.engine.SetNote(ctx, args[0], text)
	if err != nil {
		return c.fail("setting note failed", err, "barcode", args[0])
	}
	if text == "" {
		fmt.Fprintf(c.stdout, "note cleared on %s\n", item.Barcode)
	} else {
		fmt.Fprintf(c.stdout, "note set on %s\n", item.Barcode)
	}
	return 0
}

func (c *cli) items(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var typ, status, date string
	var f store.ItemFilter
	fs.StringVar(&typ, "type", "", "item type prefix or name, e.g. PIPI or PioPino")
	fs.IntVar(&f.Generation, "gen", 0, "generation 1-9")
	fs.StringVar(&f.Location, "location", "", "location name")
	fs.StringVar(&status, "status", "", "in or out")
	fs.StringVar(&date, "date", "", "label date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if typ != "" {
		t, err := parseType(typ)
		if err != nil {
			return c.usageError("items -type: %v", err)
		}
		f.Type = t
	}
	switch strings.ToLower(status) {
	case "":
	case "in", strings.ToLower(model.StatusInStock):
		f.Status = model.StatusInStock
	case "out", strings.ToLower(model.StatusCheckedOut):
		f.Status = model.StatusCheckedOut
	default:
		return c.usageError("items -status in|out")
	}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return c.usageError("items -date YYYY-MM-DD")
		}
		f.LabelDate = d
	}

	items, err := c.engine.Items(ctx, f)
	if err != nil {
		return c.fail("listing items failed", err)
	}
	if err := report.WriteItems(c.stdout, items); err != nil {
		return c.fail("printing items failed", err)
	}
	return 0
}

func parseType(s string) (barcode.Type, error) {
	if t, ok := barcode.LookupName(s); ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", barcode.ErrUnknownType, s)
}

func (c *cli) report(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var xlsxPath string
	fs.StringVar(&xlsxPath, "xlsx", "", "write a workbook to this path")
	fs.StringVar(&xlsxPath, "x", "", "write a workbook to this path")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	summary, err := c.engine.Summary(ctx)
	if err != nil {
		return c.fail("summarizing inventory failed", err)
	}

	if xlsxPath == "" {
		if err := report.WriteSummary(c.stdout, summary); err != nil {
			return c.fail("printing summary failed", err)
		}
		return 0
	}

	items, err := c.engine.Items(ctx, store.ItemFilter{})
	if err != nil {
		return c.fail("listing items failed", err)
	}
	f, err := os.Create(xlsxPath)
	if err != nil {
		return c.fail("creating report failed", err, "path", xlsxPath)
	}
	if err := report.WriteXLSX(f, summary, items); err != nil {
		f.Close()
		return c.fail("writing report failed", err, "path", xlsxPath)
	}
	if err := f.Close(); err != nil {
		return c.fail("writing report failed", err, "path", xlsxPath)
	}
	c.logger.Info("report written", "path", xlsxPath, "items", len(items))
	return 0
}

func (c *cli) backup(ctx context.Context) int {
	if _, err := c.snapshot(ctx); err != nil {
		return c.fail("backup failed", err)
	}
	return 0
}

// snapshot writes a backup, prunes old ones and uploads the new one to S3
// when a bucket is configured.
func (c *cli) snapshot(ctx context.Context) (string, error) {
	path, err := backup.Snapshot(ctx, c.engine.DB(), c.cfg.backupDir, time.Now())
	if err != nil {
		return "", err
	}
	c.logger.Info("backup written", "path", path)

	if c.cfg.keep > 0 {
		removed, err := backup.Prune(c.cfg.backupDir, c.cfg.keep)
		if err != nil {
			return path, err
		}
		sort.Strings(removed)
		for _, p := range removed {
			c.logger.Info("old backup removed", "path", p)
		}
	}

	s3cfg, ok := backup.S3ConfigFromEnv(c.getenv)
	if !ok {
		return path, nil
	}
	uploader, err := backup.NewS3Uploader(ctx, s3cfg)
	if err != nil {
		return path, err
	}
	key, err := uploader.Upload(ctx, path)
	if err != nil {
		return path, err
	}
	c.logger.Info("backup uploaded", "bucket", s3cfg.Bucket, "key", key)
	return path, nil
}
