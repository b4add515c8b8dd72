package main

import (
	"errors"
	"fmt"

	"masarif/internal/cli"
	"masarif/internal/core"
	"masarif/internal/services"
)

type addCmd struct {
	Amount      string `arg:"" help:"Amount, e.g. 12.50 or 12,50."`
	Category    string `short:"c" help:"Category key (defaults to DEFAULT_CATEGORY)."`
	Description string `short:"d" help:"Free text description."`
	Date        string `help:"Date as YYYY-MM-DD (defaults to today)."`
	Time        string `help:"Time as HH:MM (defaults to now)."`
}

type listCmd struct {
	Limit int `short:"n" default:"0" help:"Show at most this many records (0 = all)."`
}

type summaryCmd struct {
	Today string `help:"Reference date as YYYY-MM-DD (defaults to today)."`
	Days  int    `default:"7" help:"Number of dates to show (0 = all)."`
}

type categoriesCmd struct{}

type exportCmd struct{}

type resetCmd struct {
	Yes   bool `help:"Confirm deleting every record."`
	Purge bool `help:"Delete the stored log instead of emptying it; the next start loads the sample seed again."`
}

// withService opens the configured store, loads the log and runs fn.
func withService(rc *runContext, publish bool, fn func(*services.ExpenseService) error) error {
	l, err := cli.OpenLedger(rc.ctx, rc.cfg, rc.logger)
	if err != nil {
		return err
	}
	svc, err := cli.NewService(rc.ctx, rc.cfg, l, publish, rc.logger)
	if err != nil {
		_ = l.Close()
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			rc.logger.Warn("Cleanup failed", "error", err)
		}
	}()
	return fn(svc)
}

func (c *addCmd) Run(rc *runContext) error {
	category := c.Category
	if category == "" {
		category = rc.cfg.DefaultCategory
	}
	return withService(rc, true, func(svc *services.ExpenseService) error {
		e, err := svc.Record(rc.ctx, core.RawInput{
			Amount:      c.Amount,
			Category:    category,
			Description: c.Description,
			Date:        c.Date,
			Time:        c.Time,
		})
		if err != nil {
			return err
		}
		return printExpenses(rc, []core.Expense{e})
	})
}

func (c *listCmd) Run(rc *runContext) error {
	return withService(rc, false, func(svc *services.ExpenseService) error {
		log := svc.List(rc.ctx)
		if c.Limit > 0 && c.Limit < len(log) {
			log = log[:c.Limit]
		}
		return printExpenses(rc, log)
	})
}

func (c *summaryCmd) Run(rc *runContext) error {
	var today core.Date
	if c.Today != "" {
		d, err := core.ParseDate(c.Today)
		if err != nil {
			return fmt.Errorf("--today %q: %w", c.Today, err)
		}
		today = d
	}
	if c.Days < 0 {
		return errors.New("--days must not be negative")
	}
	return withService(rc, false, func(svc *services.ExpenseService) error {
		return printSummary(rc, svc.Summary(rc.ctx, today), c.Days)
	})
}

func (c *categoriesCmd) Run(rc *runContext) error {
	return printCategories(rc, core.DefaultRegistry().List(), rc.cfg.DefaultCategory)
}

// Run refuses to export a corrupt log so the sheet is never wiped by a
// damaged blob.
func (c *exportCmd) Run(rc *runContext) error {
	exporter, err := cli.NewExporter(rc.ctx, rc.cfg, false, rc.logger)
	if err != nil {
		return err
	}
	l, err := cli.OpenLedger(rc.ctx, rc.cfg, rc.logger)
	if err != nil {
		return err
	}
	defer l.Close()

	log, err := l.Store.Load(rc.ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	n, err := exporter.ExportLog(rc.ctx, log)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.out, "exported %d rows\n", n)
	return err
}

func (c *resetCmd) Run(rc *runContext) error {
	if !c.Yes {
		return errors.New("refusing to delete every expense without --yes")
	}
	return withService(rc, false, func(svc *services.ExpenseService) error {
		if c.Purge {
			if err := svc.Purge(rc.ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(rc.out, "stored expense log deleted")
			return err
		}
		if err := svc.Reset(rc.ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(rc.out, "expense log cleared")
		return err
	})
}
