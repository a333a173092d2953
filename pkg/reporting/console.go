// Package reporting renders backtest results to the console and to Excel.
package reporting

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/backtest"
)

// ConsoleReporter prints backtest results as console tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputResults prints the run summary, strategy attribution, and regime
// distribution.
func (r *ConsoleReporter) OutputResults(results *backtest.Results) {
	r.printSummary(results)
	r.printAttribution(results)
	r.printRegimes(results)
}

func (r *ConsoleReporter) printSummary(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Symbol", results.Config.Symbol},
		{"Period", fmt.Sprintf("%s to %s", results.StartTime.Format("2006-01-02"), results.EndTime.Format("2006-01-02"))},
		{"Initial Balance", fmt.Sprintf("$%.2f", results.Config.InitialBalance)},
		{"Final Equity", fmt.Sprintf("$%.2f", results.FinalEquity)},
		{"Total Return", fmt.Sprintf("%.2f%%", results.TotalReturn*100)},
		{"Annualized Return", fmt.Sprintf("%.2f%%", results.AnnualizedReturn*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)},
		{"Win Rate", fmt.Sprintf("%.1f%%", results.WinRate)},
		{"Total Trades", results.TotalTrades},
		{"Total Commission", fmt.Sprintf("$%.2f", results.TotalCommission)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printAttribution(results *backtest.Results) {
	if len(results.DecisionsBySource) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("DECISIONS BY SOURCE STRATEGY")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Source", "Decisions", "Share"})

	total := 0
	for _, count := range results.DecisionsBySource {
		total += count
	}
	for _, source := range sortedKeys(results.DecisionsBySource) {
		count := results.DecisionsBySource[source]
		t.AppendRow(table.Row{source, count, fmt.Sprintf("%.1f%%", float64(count)/float64(total)*100)})
	}

	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printRegimes(results *backtest.Results) {
	if len(results.RegimeBars) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("MARKET REGIME DISTRIBUTION")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Regime", "Bars", "Share"})

	total := 0
	for _, count := range results.RegimeBars {
		total += count
	}
	for _, name := range sortedKeys(results.RegimeBars) {
		count := results.RegimeBars[name]
		t.AppendRow(table.Row{name, count, fmt.Sprintf("%.1f%%", float64(count)/float64(total)*100)})
	}

	t.Render()
	fmt.Println()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OutputConsole is a package-level convenience function.
func OutputConsole(results *backtest.Results) {
	NewConsoleReporter().OutputResults(results)
}
