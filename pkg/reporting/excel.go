package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/schmidb/AI-crypto-bot-sub001/internal/backtest"
)

// ExcelReporter writes backtest results to an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	percent  int
}

// WriteResults writes summary, trade, and attribution sheets to path.
func (r *ExcelReporter) WriteResults(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const attributionSheet = "Attribution"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(attributionSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, results, styles); err != nil {
		return err
	}
	if err := r.writeAttributionSheet(fx, attributionSheet, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    9,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return styles, err
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Symbol", results.Config.Symbol, 0},
		{"Start", results.StartTime.Format("2006-01-02 15:04"), 0},
		{"End", results.EndTime.Format("2006-01-02 15:04"), 0},
		{"Initial Balance", results.Config.InitialBalance, styles.currency},
		{"Final Equity", results.FinalEquity, styles.currency},
		{"Total Return", results.TotalReturn, styles.percent},
		{"Annualized Return", results.AnnualizedReturn, styles.percent},
		{"Max Drawdown", results.MaxDrawdown, styles.percent},
		{"Sharpe Ratio", results.SharpeRatio, 0},
		{"Win Rate", results.WinRate / 100, styles.percent},
		{"Total Trades", results.TotalTrades, 0},
		{"Total Commission", results.TotalCommission, styles.currency},
	}

	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.header)

	for i, row := range rows {
		cellA := fmt.Sprintf("A%d", i+2)
		cellB := fmt.Sprintf("B%d", i+2)
		fx.SetCellValue(sheet, cellA, row.label)
		fx.SetCellValue(sheet, cellB, row.value)
		if row.style != 0 {
			fx.SetCellStyle(sheet, cellB, cellB, row.style)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 22)
	fx.SetColWidth(sheet, "B", "B", 20)
	return nil
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	headers := []string{"Timestamp", "Side", "Price", "Quantity", "Value", "Commission", "Confidence", "Source Strategy"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for i, trade := range results.Trades {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), trade.Timestamp.Format("2006-01-02 15:04"))
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), trade.Side)
		fx.SetCellValue(sheet, fmt.Sprintf("C%d", row), trade.Price)
		fx.SetCellValue(sheet, fmt.Sprintf("D%d", row), trade.Quantity)
		fx.SetCellValue(sheet, fmt.Sprintf("E%d", row), trade.Value)
		fx.SetCellValue(sheet, fmt.Sprintf("F%d", row), trade.Commission)
		fx.SetCellValue(sheet, fmt.Sprintf("G%d", row), trade.Confidence)
		fx.SetCellValue(sheet, fmt.Sprintf("H%d", row), trade.SourceStrategy)

		fx.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("F%d", row), styles.currency)
	}

	fx.SetColWidth(sheet, "A", "A", 18)
	fx.SetColWidth(sheet, "H", "H", 20)
	return nil
}

func (r *ExcelReporter) writeAttributionSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	fx.SetCellValue(sheet, "A1", "Source Strategy")
	fx.SetCellValue(sheet, "B1", "Decisions")
	fx.SetCellStyle(sheet, "A1", "B1", styles.header)

	row := 2
	for _, source := range sortedKeys(results.DecisionsBySource) {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), source)
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), results.DecisionsBySource[source])
		row++
	}

	row += 1
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Regime")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Bars")
	fx.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), styles.header)
	row++
	for _, name := range sortedKeys(results.RegimeBars) {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), name)
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), results.RegimeBars[name])
		row++
	}

	fx.SetColWidth(sheet, "A", "A", 22)
	return nil
}
