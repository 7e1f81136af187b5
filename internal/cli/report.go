package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/internal/validation"
)

// addReportCommands adds performance reporting.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newReportCmd(app))
}

// Report periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// periodRange returns the inclusive day range of a period ending today.
// PeriodAll has no bounds.
func periodRange(period string, now time.Time) (from, to models.DateKey, err error) {
	today := models.KeyOf(now)
	switch period {
	case PeriodToday:
		return today, today, nil
	case PeriodWeek:
		return models.KeyOf(analytics.StartOfWeek(now)), today, nil
	case PeriodMonth:
		return models.KeyOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())), today, nil
	case PeriodYear:
		return models.KeyOf(time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())), today, nil
	case PeriodAll, "":
		return "", "", nil
	}
	return "", "", apperrors.NewValidationError("period", period, "must be today, week, month, year or all")
}

// GroupRow is one line of a grouped report.
type GroupRow struct {
	Key        string  `json:"key" csv:"key"`
	Trades     int     `json:"trades" csv:"trades"`
	Wins       int     `json:"wins" csv:"wins"`
	Losses     int     `json:"losses" csv:"losses"`
	Breakevens int     `json:"breakevens" csv:"breakevens"`
	WinRate    float64 `json:"win_rate" csv:"win_rate"`
	TotalPnL   float64 `json:"total_pnl" csv:"total_pnl"`
}

func groupRow(key string, g *analytics.Group) GroupRow {
	return GroupRow{
		Key:        key,
		Trades:     g.Count(),
		Wins:       g.Wins,
		Losses:     g.Losses,
		Breakevens: g.Breakevens,
		WinRate:    g.WinRate(),
		TotalPnL:   g.TotalPnL,
	}
}

// groupRows breaks trades down by symbol, weekday or direction.
func groupRows(by string, trades []models.Trade) ([]GroupRow, error) {
	var rows []GroupRow
	switch by {
	case "symbol":
		groups := analytics.GroupBySymbol(trades)
		for _, sym := range analytics.SortedSymbols(groups) {
			rows = append(rows, groupRow(sym, groups[sym]))
		}
	case "weekday":
		for i, g := range analytics.GroupByWeekday(trades) {
			rows = append(rows, groupRow(analytics.WeekdayNames[i], g))
		}
	case "direction":
		groups := analytics.GroupByDirection(trades)
		for _, d := range []models.Direction{models.DirectionLong, models.DirectionShort} {
			if g, ok := groups[d]; ok {
				rows = append(rows, groupRow(string(d), g))
			}
		}
	default:
		return nil, apperrors.NewValidationError("by", by, "must be symbol, weekday, mood or direction")
	}
	return rows, nil
}

// ReportView is the JSON form of the report command.
type ReportView struct {
	Period      string                 `json:"period"`
	From        models.DateKey         `json:"from,omitempty"`
	To          models.DateKey         `json:"to,omitempty"`
	Summary     analytics.Summary      `json:"summary"`
	Groups      []GroupRow             `json:"groups,omitempty"`
	Moods       []analytics.MoodStat   `json:"moods,omitempty"`
	Curve       []analytics.CurvePoint `json:"curve,omitempty"`
	MaxDrawdown float64                `json:"max_drawdown"`
}

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Performance report",
		Long: `Summarize results over a period and break them down.

Breakeven trades count as neither win nor loss and add nothing to totals.`,
		Example: `  tradejournal report
  tradejournal report --period all --by symbol
  tradejournal report --by mood --from 2026-01-01 --to 2026-03-31
  tradejournal report --curve --csv equity.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			period, _ := cmd.Flags().GetString("period")
			from, to, err := periodRange(period, app.now())
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("from"); v != "" {
				if from, err = validation.DateKey("from", v); err != nil {
					return err
				}
			}
			if v, _ := cmd.Flags().GetString("to"); v != "" {
				if to, err = validation.DateKey("to", v); err != nil {
					return err
				}
			}
			by, _ := cmd.Flags().GetString("by")
			curve, _ := cmd.Flags().GetBool("curve")
			csvPath, _ := cmd.Flags().GetString("csv")

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{StartDate: from, EndDate: to})
			if err != nil {
				return err
			}

			view := ReportView{Period: period, From: from, To: to, Summary: analytics.Summarize(trades)}
			switch by {
			case "":
			case "mood":
				entries, err := app.Store.GetJournal(ctx, store.JournalFilter{StartDate: from, EndDate: to})
				if err != nil {
					return err
				}
				view.Moods = analytics.MoodCorrelation(trades, entries)
			default:
				if view.Groups, err = groupRows(by, trades); err != nil {
					return err
				}
			}
			if curve || csvPath != "" {
				view.Curve = analytics.EquityCurve(analytics.GroupByDate(trades))
				view.MaxDrawdown = analytics.MaxDrawdown(view.Curve)
			}

			if csvPath != "" {
				if err := writeReportCSV(csvPath, by, curve, view); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(view)
			}
			if csvPath != "" {
				output.Success("✓ Report written to %s", csvPath)
				output.Println()
			}
			app.renderReport(output, view, curve)
			return nil
		},
	}

	cmd.Flags().StringP("period", "p", PeriodMonth, "today, week, month, year or all")
	cmd.Flags().String("from", "", "First day (overrides --period)")
	cmd.Flags().String("to", "", "Last day (overrides --period)")
	cmd.Flags().String("by", "", "Break down by symbol, weekday, mood or direction")
	cmd.Flags().Bool("curve", false, "Show the cumulative P&L curve")
	cmd.Flags().String("csv", "", "Also write the breakdown, curve or summary to a CSV file")

	return cmd
}

// writeReportCSV writes whichever table the flags asked for: the breakdown,
// else the curve, else the one-line summary.
func writeReportCSV(path, by string, curve bool, view ReportView) error {
	switch {
	case by == "mood":
		return writeCSV(path, &view.Moods)
	case by != "":
		return writeCSV(path, &view.Groups)
	case curve:
		return writeCSV(path, &view.Curve)
	}
	rows := []analytics.Summary{view.Summary}
	return writeCSV(path, &rows)
}

func (app *App) renderReport(output *Output, view ReportView, curve bool) {
	s := view.Summary
	title := "All time"
	if view.From != "" || view.To != "" {
		title = fmt.Sprintf("%s to %s", orDash(string(view.From)), orDash(string(view.To)))
	}

	if s.TotalTrades == 0 {
		output.Bold("%s", title)
		output.Info("No trades in this period")
		return
	}

	lines := []string{
		fmt.Sprintf("Net P&L:        %s", output.FormatPnL(s.NetPnL)),
		fmt.Sprintf("Trades:         %d  (%dW / %dL / %dBE)", s.TotalTrades, s.Wins, s.Losses, s.Breakevens),
		fmt.Sprintf("Win rate:       %s", FormatWinRate(s.WinRate)),
		fmt.Sprintf("Profit factor:  %.2f", s.ProfitFactor),
		fmt.Sprintf("Avg win/loss:   %s / %s", output.FormatPnL(s.AvgWin), output.FormatPnL(s.AvgLoss)),
		fmt.Sprintf("Expectancy:     %s", output.FormatPnL(s.Expectancy)),
		fmt.Sprintf("Trading days:   %d", s.TradingDays),
	}
	if s.BestDay != "" {
		lines = append(lines,
			fmt.Sprintf("Best day:       %s  %s", FormatDate(s.BestDay, app.Config.UI.DateFormat), output.FormatPnL(s.BestDayPnL)),
			fmt.Sprintf("Worst day:      %s  %s", FormatDate(s.WorstDay, app.Config.UI.DateFormat), output.FormatPnL(s.WorstDayPnL)),
		)
	}
	output.Box(title, lines)

	if len(view.Groups) > 0 {
		output.Println()
		table := NewTable(output, "KEY", "TRADES", "W/L/BE", "WIN RATE", "P&L")
		for _, r := range view.Groups {
			table.AddRow(r.Key, fmt.Sprintf("%d", r.Trades),
				fmt.Sprintf("%d/%d/%d", r.Wins, r.Losses, r.Breakevens),
				FormatWinRate(r.WinRate), output.FormatPnL(r.TotalPnL))
		}
		table.Render()
	}

	if len(view.Moods) > 0 {
		output.Println()
		table := NewTable(output, "MOOD", "DAYS", "TRADES", "WIN RATE", "AVG DAY", "P&L")
		for _, m := range view.Moods {
			label := m.Label
			if m.Mood != models.MoodUnknown {
				label = FormatMood(m.Mood)
			}
			table.AddRow(label, fmt.Sprintf("%d", m.Days), fmt.Sprintf("%d", m.Trades),
				FormatWinRate(m.WinRate), output.FormatPnL(m.AvgDayPnL), output.FormatPnL(m.TotalPnL))
		}
		table.Render()
	}

	if curve && len(view.Curve) > 0 {
		output.Println()
		table := NewTable(output, "DATE", "DAY", "CUMULATIVE", "TRADES")
		for _, p := range view.Curve {
			table.AddRow(FormatDate(p.Date, app.Config.UI.DateFormat), output.FormatPnL(p.DayPnL),
				output.FormatPnL(p.Cumulative), fmt.Sprintf("%d", p.Trades))
		}
		table.Render()
		output.Println()
		output.Printf("Max drawdown: %s\n", output.FormatPnL(-view.MaxDrawdown))
	}
}
