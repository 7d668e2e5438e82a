package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/ledger"
	"monthlyexpenses/internal/services"
)

var (
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	headerStyle = cellStyle.Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	overStyle   = cellStyle.Foreground(lipgloss.Color("#f38ba8"))
	underStyle  = cellStyle.Foreground(lipgloss.Color("#a6e3a1"))
)

var out io.Writer = os.Stdout

type showCmd struct {
	Month string `arg:"" help:"Month to show (YYYY-MM)."`
}

func (c *showCmd) Run(g *globals) error {
	month, err := core.ParseMonth(c.Month)
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, cleanup, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	l, found, err := svc.LoadMonth(ctx, month)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, dimStyle.Render("No data for "+month.String()))
		return nil
	}
	printEntries(l.Entries)
	return nil
}

type addCmd struct {
	Month   string `arg:"" help:"Month to add to (YYYY-MM)."`
	Type    string `arg:"" help:"Expense type, e.g. groceries or \"misc extra\"."`
	Amount  string `arg:"" help:"Positive amount; a comma is accepted as decimal separator."`
	Subtype string `help:"Subtype, required for misc extra."`
}

func (c *addCmd) Run(g *globals) error {
	month, err := core.ParseMonth(c.Month)
	if err != nil {
		return err
	}
	var draft services.Draft
	if _, err := draft.Add(core.ExpenseType(c.Type), c.Subtype, c.Amount); err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	saved, err := draft.Submit(ctx, svc, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", month.FileName())
	printEntries(saved.Entries)
	return nil
}

type totalCmd struct {
	Type  string `arg:"" help:"Expense type to sum."`
	Start string `arg:"" help:"First month of the range (YYYY-MM)."`
	End   string `arg:"" help:"Last month of the range (YYYY-MM)."`
}

func (c *totalCmd) Run(g *globals) error {
	t := core.ExpenseType(c.Type)
	if !t.Known() {
		return fmt.Errorf("%w: %q", core.ErrUnknownType, c.Type)
	}
	start, err := core.ParseMonth(c.Start)
	if err != nil {
		return err
	}
	end, err := core.ParseMonth(c.End)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	total, err := svc.TotalForType(ctx, start, end, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s..%s: %s\n", core.DisplayName(t), start, end, core.FormatAmount(total))
	return nil
}

type deviationsCmd struct {
	Month string `arg:"" help:"Month to check (YYYY-MM)."`
}

func (c *deviationsCmd) Run(g *globals) error {
	month, err := core.ParseMonth(c.Month)
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, cleanup, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	devs, err := svc.MonthDeviations(ctx, month)
	if err != nil {
		return err
	}
	printDeviations(devs)
	return nil
}

type monthsCmd struct{}

func (c *monthsCmd) Run(g *globals) error {
	ctx := context.Background()
	svc, cleanup, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	months, err := svc.Months(ctx)
	if err != nil {
		return err
	}
	if len(months) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No month files."))
	}
	for _, m := range months {
		fmt.Fprintln(out, m)
	}
	return nil
}

type typesCmd struct{}

func (c *typesCmd) Run(*globals) error {
	t := newTable("TYPE", "DEFAULT")
	for _, et := range core.Types() {
		def, _ := core.DefaultBudget(et)
		t.Row(core.DisplayName(et), core.FormatAmount(def))
	}
	fmt.Fprintln(out, t)
	return nil
}

// newTable returns a borderless table. Cell styles are applied by the table
// so their escape codes never count towards column widths.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printEntries(entries []core.Entry) {
	t := newTable("TYPE", "SUBTYPE", "AMOUNT")
	for _, e := range entries {
		t.Row(core.DisplayName(e.Type), e.Subtype, core.FormatAmount(e.Amount))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 2 && !entries[row].HasAmount():
			return overStyle
		}
		return cellStyle
	})
	fmt.Fprintln(out, t)
}

func printDeviations(devs []ledger.Deviation) {
	if len(devs) == 0 {
		fmt.Fprintln(out, dimStyle.Render("Every entry matches its default budget."))
		return
	}
	t := newTable("TYPE", "ACTUAL", "DEFAULT", "DIFF")
	for _, d := range devs {
		name := core.DisplayName(d.Type)
		if d.Subtype != "" {
			name += " (" + d.Subtype + ")"
		}
		diff := fmt.Sprintf("%+.2f (%+.1f%%)", d.Diff, d.Percent)
		t.Row(name, core.FormatAmount(d.Actual), core.FormatAmount(d.Default), diff)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 3 && devs[row].IsOver:
			return overStyle
		case col == 3:
			return underStyle
		}
		return cellStyle
	})
	fmt.Fprintln(out, t)
}
