// Package ui renders page state for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"findash/internal/aggregate"
	"findash/internal/alert"
	"findash/internal/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	revenueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)

	alertStyles = map[alert.Severity]lipgloss.Style{
		alert.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true),
		alert.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
		alert.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")).Bold(true),
		alert.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")),
	}
)

const chartWidth = 30

// Summary renders the four total cards.
func Summary(s core.DashboardSummary) string {
	card := func(label, value string, style lipgloss.Style) string {
		return cardStyle.Render(labelStyle.Render(label) + "\n" + style.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Revenue", core.FormatUSD(s.TotalRevenue), revenueStyle),
		card("Total Expenses", core.FormatUSD(s.TotalExpenses), expenseStyle),
		card("Balance", core.FormatUSD(s.TotalBalance), valueStyle),
		card("Transactions", fmt.Sprintf("%d", s.TotalTransactions), valueStyle),
	)
}

// Chart renders revenue and expense bars per bucket, scaled to the largest
// value.
func Chart(points []aggregate.Point, g aggregate.Granularity) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Revenue vs Expenses (%sly)", g)))
	b.WriteByte('\n')
	if len(points) == 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("No data available for %sly view", g)))
		return b.String()
	}

	top := decimal.Zero
	labelWidth := 0
	for _, p := range points {
		top = decimal.Max(top, p.Revenue.Abs(), p.Expenses.Abs())
		labelWidth = maxInt(labelWidth, len(p.Label))
	}
	for _, p := range points {
		label := fmt.Sprintf("%-*s", labelWidth, p.Label)
		fmt.Fprintf(&b, "%s %s %s\n", labelStyle.Render(label),
			revenueStyle.Render(bar(p.Revenue, top)), core.FormatUSD(p.Revenue))
		fmt.Fprintf(&b, "%s %s %s\n", strings.Repeat(" ", labelWidth),
			expenseStyle.Render(bar(p.Expenses, top)), core.FormatUSD(p.Expenses))
	}
	return strings.TrimRight(b.String(), "\n")
}

func bar(v, top decimal.Decimal) string {
	if top.IsZero() {
		return ""
	}
	n := int(v.Abs().Div(top).Mul(decimal.NewFromInt(chartWidth)).Round(0).IntPart())
	return strings.Repeat("█", n)
}

// Categories renders the by-category breakdown.
func Categories(data []core.CategoryData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("By category"))
	for _, c := range data {
		fmt.Fprintf(&b, "\n%s %s %s", labelStyle.Render(fmt.Sprintf("%-10s", c.Category)),
			valueStyle.Render(core.FormatUSD(c.Amount)), mutedStyle.Render(fmt.Sprintf("(%d)", c.Count)))
	}
	return b.String()
}

// TableView is what the transaction table shows.
type TableView struct {
	Page          core.PaginatedResponse[core.Transaction]
	ActiveFilters int
	Loading       bool
}

// Table renders the transaction table with its pagination footer.
func Table(v TableView) string {
	var b strings.Builder
	title := "Transactions"
	if v.ActiveFilters > 0 {
		title += fmt.Sprintf(" · %d filter(s) active", v.ActiveFilters)
	}
	if v.Loading {
		title += " · loading…"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')

	if len(v.Page.Data) == 0 {
		b.WriteString(mutedStyle.Render("No transactions found"))
		b.WriteByte('\n')
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s  %14s  %-8s  %-7s  %s", "Date", "Amount", "Category", "Status", "User")))
		b.WriteByte('\n')
		for _, t := range v.Page.Data {
			style := revenueStyle
			if t.Category == core.Expense {
				style = expenseStyle
			}
			fmt.Fprintf(&b, "%-10s  %s  %-8s  %-7s  %s\n",
				t.Date.String(),
				style.Render(fmt.Sprintf("%14s", core.FormatUSD(t.Signed()))),
				t.Category, t.Status, t.UserID)
		}
	}

	pg := v.Page.Pagination
	prev, next := "‹ prev", "next ›"
	if !v.Page.HasPrev() {
		prev = mutedStyle.Render(prev)
	}
	if !v.Page.HasNext() {
		next = mutedStyle.Render(next)
	}
	fmt.Fprintf(&b, "%s  page %d of %d · %d item(s)  %s",
		prev, pg.CurrentPage, maxInt(pg.TotalPages, 1), pg.TotalItems, next)
	return b.String()
}

// Alert renders the notification line, or "" when closed.
func Alert(st alert.State) string {
	if !st.Open {
		return ""
	}
	style, ok := alertStyles[st.Severity]
	if !ok {
		style = alertStyles[alert.Info]
	}
	return style.Render(fmt.Sprintf("[%s] %s", st.Severity, st.Message))
}

// ExportDialog renders the confirmation step of an export.
func ExportDialog(preview core.ExportPreview, available, selected []string) string {
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c] = true
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Export Transactions"))
	fmt.Fprintf(&b, "\nReady to export %d transactions", preview.TotalTransactions)
	if preview.Message != "" {
		b.WriteString("\n" + mutedStyle.Render(preview.Message))
	}
	b.WriteString("\nSelect columns to export:")
	for _, c := range available {
		box := "[ ]"
		if chosen[c] {
			box = "[x]"
		}
		fmt.Fprintf(&b, "\n  %s %s", box, ColumnLabel(c))
	}
	if len(selected) == 0 {
		b.WriteString("\n" + expenseStyle.Render("Select at least one column to export"))
	}
	return cardStyle.Render(b.String())
}

// ColumnLabel turns a column key into its display label.
func ColumnLabel(column string) string {
	if column == "id" {
		return "ID"
	}
	s := strings.Replace(column, "_", " ", 1)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
