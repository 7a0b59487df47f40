package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// finishToken ends a scan session. Scanners are usually configured to emit
// it from a printed "finish" barcode.
const finishToken = "finish"

// scan runs an interactive session: each line read from stdin is a barcode
// to check in, check out or move, until "finish" or end of input. Failed
// scans are reported and the session continues. A backup is attempted
// before the first scan.
func (c *cli) scan(ctx context.Context, args []string) int {
	var apply func(ctx context.Context, raw string) (string, error)

	switch {
	case len(args) == 2 && args[0] == "in":
		location := args[1]
		apply = func(ctx context.Context, raw string) (string, error) {
			item, err := c.engine.CheckIn(ctx, raw, location)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s checked in at %s", item.Barcode, item.Location), nil
		}
	case len(args) == 1 && args[0] == "out":
		apply = func(ctx context.Context, raw string) (string, error) {
			item, err := c.engine.CheckOut(ctx, raw)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s checked out from %s", item.Barcode, item.Location), nil
		}
	case len(args) == 2 && args[0] == "move":
		location := args[1]
		apply = func(ctx context.Context, raw string) (string, error) {
			item, err := c.engine.Move(ctx, raw, location)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s moved to %s", item.Barcode, item.Location), nil
		}
	default:
		return c.usageError("scan in <location> | scan out | scan move <location>")
	}

	if _, err := c.snapshot(ctx); err != nil {
		c.logger.Warn("backup before scan session failed", "error", err)
	}

	fmt.Fprintf(c.stdout, "scan barcodes, %q to end\n", finishToken)

	var scanned, failed int
	sc := bufio.NewScanner(c.stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if strings.EqualFold(raw, finishToken) {
			break
		}

		scanned++
		msg, err := apply(ctx, raw)
		if err != nil {
			failed++
			c.logger.Error("scan rejected", "barcode", raw, "error", err)
			continue
		}
		fmt.Fprintln(c.stdout, msg)
	}
	if err := sc.Err(); err != nil {
		return c.fail("reading scans failed", err)
	}

	c.logger.Info("scan session finished", "scanned", scanned, "failed", failed)
	if failed > 0 {
		return 1
	}
	return 0
}
