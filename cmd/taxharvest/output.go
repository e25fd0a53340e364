package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// render writes v as JSON, or the table built by tbl.
func render(cmd *cobra.Command, v any, tbl func() *table.Table) error {
	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "table", "":
		_, err := fmt.Fprintln(out, tbl().String())
		return err
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// keyValue renders two-column label/value rows.
func keyValue(rows ...[2]string) *table.Table {
	t := newTable("Field", "Value")
	for _, r := range rows {
		t.Row(r[0], r[1])
	}
	return t
}

// inr formats an amount in rupees with paise.
func inr(d decimal.Decimal) string {
	cur := money.GetCurrency(money.INR)
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, money.INR).Display()
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func uintString(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func parseAmount(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
