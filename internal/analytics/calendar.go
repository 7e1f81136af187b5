package analytics

import (
	"time"

	"trade-journal/internal/models"
)

// Cell is one slot of a Monday-first month grid. Leading and trailing
// padding cells have Empty set and nothing else.
type Cell struct {
	Empty          bool           `json:"empty"`
	Day            int            `json:"day,omitempty"`
	Key            models.DateKey `json:"key,omitempty"`
	IsCurrentMonth bool           `json:"is_current_month,omitempty"`
	IsToday        bool           `json:"is_today,omitempty"`
	Group          *Group         `json:"group,omitempty"`
}

// HasTrades reports whether the day has any trades.
func (c Cell) HasTrades() bool {
	return c.Group.Count() > 0
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildMonthGrid lays out a month as a flat list of cells whose length is a
// multiple of 7. The first column is Monday. IsCurrentMonth is set when the
// grid's month is the month containing now; IsToday marks the cell whose
// year, month and day equal now's.
func BuildMonthGrid(year int, month time.Month, days DayGroups, now time.Time) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	offset := MondayIndex(first.Weekday())
	n := DaysIn(year, month)

	currentMonth := now.Year() == first.Year() && now.Month() == first.Month()

	cells := make([]Cell, 0, 42)
	for i := 0; i < offset; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for d := 1; d <= n; d++ {
		day := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, first.Location())
		key := models.KeyOf(day)
		cells = append(cells, Cell{
			Day:            d,
			Key:            key,
			IsCurrentMonth: currentMonth,
			IsToday:        currentMonth && now.Day() == d,
			Group:          days[key],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{Empty: true})
	}
	return cells
}

// MonthTotals sums the groups that fall inside the month.
func MonthTotals(cells []Cell) *Group {
	total := &Group{}
	for _, c := range cells {
		if c.Group == nil {
			continue
		}
		for _, t := range c.Group.Trades {
			total.Add(t)
		}
	}
	return total
}
