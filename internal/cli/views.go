package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/config"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// calendarCellWidth is the column width of calendar and heatmap cells.
const calendarCellWidth = 9

// addViewCommands adds the calendar and heatmap views.
func addViewCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCalendarCmd(app))
	rootCmd.AddCommand(newHeatmapCmd(app))
}

// dayGroups loads the cached trades between two days and groups them.
func (app *App) dayGroups(ctx context.Context, from, to models.DateKey) (analytics.DayGroups, error) {
	trades, err := app.Store.GetTrades(ctx, store.TradeFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, err
	}
	return analytics.GroupByDate(trades), nil
}

// showPromo prints a one-off tip the first time a view runs in a session.
func (app *App) showPromo(ctx context.Context, output *Output) {
	if output.IsJSON() {
		return
	}
	if _, shown, err := app.Store.GetPreference(ctx, store.PrefPromoShown); err != nil || shown {
		return
	}
	output.Info("New: `tradejournal heatmap` shows your recent weeks at a glance.")
	output.Println()
	if err := app.Store.SetPreference(ctx, store.PrefPromoShown, "1"); err != nil {
		app.Logger.Debug().Err(err).Msg("Failed to record promo")
	}
}

// parseMonth reads a YYYY-MM flag value; empty means the current month.
func parseMonth(value string, now time.Time) (int, time.Month, error) {
	if strings.TrimSpace(value) == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, apperrors.NewValidationError("month", value, "must be in YYYY-MM form")
	}
	return t.Year(), t.Month(), nil
}

// CalendarView is the JSON form of the calendar command.
type CalendarView struct {
	Month  string           `json:"month"`
	Cells  []analytics.Cell `json:"cells"`
	Totals *analytics.Group `json:"totals"`
}

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month of daily P&L",
		Example: `  tradejournal calendar
  tradejournal calendar --month 2026-02`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			now := app.now()
			month, _ := cmd.Flags().GetString("month")
			year, mon, err := parseMonth(month, now)
			if err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			first := time.Date(year, mon, 1, 0, 0, 0, 0, app.Location)
			last := time.Date(year, mon, analytics.DaysIn(year, mon), 0, 0, 0, 0, app.Location)
			days, err := app.dayGroups(ctx, models.KeyOf(first), models.KeyOf(last))
			if err != nil {
				return err
			}
			cells := analytics.BuildMonthGrid(year, mon, days, now)
			totals := analytics.MonthTotals(cells)

			if output.IsJSON() {
				return output.JSON(CalendarView{
					Month:  first.Format("2006-01"),
					Cells:  cells,
					Totals: totals,
				})
			}

			app.showPromo(ctx, output)
			renderCalendar(output, first, cells)
			output.Println()
			renderTotals(output, "Month", totals)
			return nil
		},
	}

	cmd.Flags().StringP("month", "m", "", "Month to show (YYYY-MM, default: current)")
	return cmd
}

func renderCalendar(output *Output, first time.Time, cells []analytics.Cell) {
	output.Bold("%s", Center(first.Format("January 2006"), 7*calendarCellWidth))

	var header strings.Builder
	for _, name := range analytics.WeekdayNames {
		header.WriteString(Center(name, calendarCellWidth))
	}
	output.Println(output.DimText(header.String()))

	for row := 0; row < len(cells); row += 7 {
		var days, values strings.Builder
		for _, c := range cells[row : row+7] {
			if c.Empty {
				days.WriteString(strings.Repeat(" ", calendarCellWidth))
				values.WriteString(strings.Repeat(" ", calendarCellWidth))
				continue
			}
			label := Center(strconv.Itoa(c.Day), calendarCellWidth)
			if c.IsToday {
				label = output.Cyan(Center("["+strconv.Itoa(c.Day)+"]", calendarCellWidth))
			}
			days.WriteString(label)

			if !c.HasTrades() {
				values.WriteString(output.DimText(Center("·", calendarCellWidth)))
				continue
			}
			pnl := c.Group.TotalPnL
			values.WriteString(output.pnlColor(pnl).Sprint(Center(FormatCompactPnL(pnl), calendarCellWidth)))
		}
		output.Println(strings.TrimRight(days.String(), " "))
		output.Println(strings.TrimRight(values.String(), " "))
	}
}

func renderTotals(output *Output, label string, g *analytics.Group) {
	if g.Count() == 0 {
		output.Dim("%s: no trades", label)
		return
	}
	output.Printf("%s: %s  •  %d trades  •  %dW / %dL / %dBE  •  win rate %s\n",
		label, output.FormatPnL(g.TotalPnL), g.Count(), g.Wins, g.Losses, g.Breakevens,
		FormatWinRate(g.WinRate()))
}

// HeatmapView is the JSON form of the heatmap command.
type HeatmapView struct {
	Weeks []analytics.WeekRow `json:"weeks"`
	Bands [][7]string         `json:"bands"`
}

func newHeatmapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show recent weeks as a P&L heatmap",
		Long: `Show the most recent weeks as Monday-first rows, one cell per day.

Cells are coloured by the day's net P&L. Days without trades and days
still to come are left uncoloured.`,
		Example: `  tradejournal heatmap
  tradejournal heatmap --weeks 12 --details`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			weeks, _ := cmd.Flags().GetInt("weeks")
			if !cmd.Flags().Changed("weeks") {
				weeks = app.Config.Journal.HeatmapWeeks
			}
			if weeks < config.MinHeatmapWeeks || weeks > config.MaxHeatmapWeeks {
				return apperrors.NewValidationError("weeks", weeks,
					fmt.Sprintf("must be between %d and %d", config.MinHeatmapWeeks, config.MaxHeatmapWeeks))
			}
			details, _ := cmd.Flags().GetBool("details")

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			now := app.now()
			starts := analytics.RecentWeeks(now, weeks)
			end := starts[len(starts)-1].AddDate(0, 0, 6)
			days, err := app.dayGroups(ctx, models.KeyOf(starts[0]), models.KeyOf(end))
			if err != nil {
				return err
			}
			rows := analytics.BuildWeekRows(starts, days, now)

			if output.IsJSON() {
				view := HeatmapView{Weeks: rows, Bands: make([][7]string, len(rows))}
				for i, row := range rows {
					for j, cell := range row.Cells {
						view.Bands[i][j] = analytics.BandFor(cell).String()
					}
				}
				return output.JSON(view)
			}

			renderHeatmap(output, rows)
			if details {
				output.Println()
				renderHeatmapDetails(output, rows, app.Config.UI.DateFormat, app.Config.UI.CurrencySymbol)
			}
			return nil
		},
	}

	cmd.Flags().IntP("weeks", "w", 6, "Number of weeks to show (default: journal.heatmap_weeks)")
	cmd.Flags().Bool("details", false, "List each traded day's total below the grid")
	return cmd
}

func renderHeatmap(output *Output, rows []analytics.WeekRow) {
	const labelWidth = 12
	var header strings.Builder
	header.WriteString(PadRight("Week of", labelWidth))
	for _, name := range analytics.WeekdayNames {
		header.WriteString(Center(name, calendarCellWidth))
	}
	header.WriteString("  Week")
	output.Println(output.DimText(header.String()))

	for _, row := range rows {
		var line strings.Builder
		start, _ := row.Start.Time(time.UTC)
		line.WriteString(PadRight(start.Format("02 Jan"), labelWidth))

		week := 0.0
		traded := false
		for _, cell := range row.Cells {
			text := strings.Repeat(" ", calendarCellWidth)
			switch cell.State {
			case analytics.CellValue:
				text = Center(FormatCompactPnL(cell.PnL), calendarCellWidth)
				week += cell.PnL
				traded = true
			case analytics.CellNoData:
				text = Center("·", calendarCellWidth)
			}
			line.WriteString(output.Band(analytics.BandFor(cell), text))
		}
		if traded {
			line.WriteString("  " + output.FormatPnL(week))
		}
		output.Println(strings.TrimRight(line.String(), " "))
	}

	output.Println()
	legend := []analytics.Band{
		analytics.BandStrongLoss, analytics.BandLoss, analytics.BandNeutral,
		analytics.BandLightProfit, analytics.BandMediumProfit, analytics.BandStrongProfit,
	}
	parts := make([]string, 0, len(legend))
	for _, b := range legend {
		parts = append(parts, output.Band(b, " "+b.String()+" "))
	}
	output.Println(strings.Join(parts, " "))
}

func renderHeatmapDetails(output *Output, rows []analytics.WeekRow, dateFormat, currency string) {
	for _, row := range rows {
		for _, cell := range row.Cells {
			if tip := analytics.Tooltip(cell, currency); tip != "" {
				output.Printf("  %s  %s\n", PadRight(FormatDate(cell.Date, dateFormat), 16), tip)
			}
		}
	}
}
