package analytics

import (
	"time"

	"trade-journal/internal/models"
)

// CellState distinguishes the three kinds of heatmap cell. A day with no
// trades and a day whose trades net to zero are different things: the first
// is NoData, the second is Value with PnL 0.
type CellState int

const (
	// CellNoData is a past or current day without trades.
	CellNoData CellState = iota
	// CellFuture is a day after today.
	CellFuture
	// CellValue is a day with trades; PnL holds its total.
	CellValue
)

// WeekCell is one day of a heatmap row.
type WeekCell struct {
	Date  models.DateKey `json:"date"`
	State CellState      `json:"state"`
	PnL   float64        `json:"pnl"`
}

// Disabled reports whether the cell is rendered without colour or tooltip.
func (c WeekCell) Disabled() bool {
	return c.State != CellValue
}

// WeekRow is a Monday..Sunday run of cells.
type WeekRow struct {
	Start models.DateKey `json:"start"`
	Cells [7]WeekCell    `json:"cells"`
}

// StartOfWeek returns midnight of the Monday on or before t, in t's
// location.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -MondayIndex(day.Weekday()))
}

// RecentWeeks returns the Mondays of the n weeks ending with the week that
// contains now, oldest first.
func RecentWeeks(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	last := StartOfWeek(now)
	weeks := make([]time.Time, n)
	for i := 0; i < n; i++ {
		weeks[i] = last.AddDate(0, 0, -7*(n-1-i))
	}
	return weeks
}

// BuildWeekRows bins per-day totals into Monday-first rows, one per entry of
// weekStarts. A start that is not a Monday is moved back to its Monday.
// Days after today are Future, days up to today without a group are NoData,
// and days with a group carry its TotalPnL.
func BuildWeekRows(weekStarts []time.Time, days DayGroups, now time.Time) []WeekRow {
	today := models.KeyOf(now)
	rows := make([]WeekRow, 0, len(weekStarts))
	for _, ws := range weekStarts {
		start := StartOfWeek(ws)
		row := WeekRow{Start: models.KeyOf(start)}
		for i := 0; i < 7; i++ {
			key := models.KeyOf(start.AddDate(0, 0, i))
			cell := WeekCell{Date: key}
			switch g, ok := days[key]; {
			case key > today:
				cell.State = CellFuture
			case !ok || g.Count() == 0:
				cell.State = CellNoData
			default:
				cell.State = CellValue
				cell.PnL = g.TotalPnL
			}
			row.Cells[i] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

// Band is the colour intensity of a heatmap cell.
type Band int

const (
	BandDisabled Band = iota
	BandNeutral
	BandLightProfit
	BandMediumProfit
	BandStrongProfit
	BandLoss
	BandStrongLoss
)

// String implements fmt.Stringer.
func (b Band) String() string {
	switch b {
	case BandNeutral:
		return "neutral"
	case BandLightProfit:
		return "light-profit"
	case BandMediumProfit:
		return "medium-profit"
	case BandStrongProfit:
		return "strong-profit"
	case BandLoss:
		return "loss"
	case BandStrongLoss:
		return "strong-loss"
	default:
		return "disabled"
	}
}

// BandForValue bands a day total.
func BandForValue(v float64) Band {
	switch {
	case v == 0:
		return BandNeutral
	case v > 400:
		return BandStrongProfit
	case v > 200:
		return BandMediumProfit
	case v > 0:
		return BandLightProfit
	case v < -150:
		return BandStrongLoss
	default:
		return BandLoss
	}
}

// BandFor bands a cell; disabled cells get BandDisabled.
func BandFor(c WeekCell) Band {
	if c.Disabled() {
		return BandDisabled
	}
	return BandForValue(c.PnL)
}

// Tooltip returns the hover text of a cell, empty for disabled cells.
func Tooltip(c WeekCell, currency string) string {
	if c.Disabled() {
		return ""
	}
	return FormatMoney(c.PnL, currency)
}
