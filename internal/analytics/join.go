package analytics

import (
	"sort"

	"trade-journal/internal/models"
)

// TradesForDate returns the trades whose DateKey is key. It scans the whole
// list; one user's history is small enough that no index is kept.
func TradesForDate(trades []models.Trade, key models.DateKey) []models.Trade {
	var out []models.Trade
	for _, t := range trades {
		if k, ok := t.Key(); ok && k == key {
			out = append(out, t)
		}
	}
	return out
}

// DayView is a journal entry shown next to the trades of its day.
type DayView struct {
	Date   models.DateKey       `json:"date"`
	Entry  *models.JournalEntry `json:"entry,omitempty"`
	Trades []models.Trade       `json:"trades"`
	Group  *Group               `json:"group,omitempty"`
}

// MergeDay joins one day's entry (may be nil) with that day's trades.
func MergeDay(key models.DateKey, entry *models.JournalEntry, trades []models.Trade) DayView {
	day := TradesForDate(trades, key)
	view := DayView{Date: key, Entry: entry, Trades: day}
	if len(day) > 0 {
		view.Group = GroupByDate(day)[key]
	}
	return view
}

// MergeDays builds a DayView for every date that has an entry or trades,
// newest first.
func MergeDays(entries []models.JournalEntry, trades []models.Trade) []DayView {
	byDate := make(map[models.DateKey]*models.JournalEntry, len(entries))
	for i := range entries {
		byDate[entries[i].Date] = &entries[i]
	}
	days := GroupByDate(trades)

	keys := make(map[models.DateKey]struct{}, len(byDate)+len(days))
	for k := range byDate {
		keys[k] = struct{}{}
	}
	for k := range days {
		keys[k] = struct{}{}
	}

	views := make([]DayView, 0, len(keys))
	for k := range keys {
		v := DayView{Date: k, Entry: byDate[k], Trades: []models.Trade{}}
		if g, ok := days[k]; ok {
			v.Trades = g.Trades
			v.Group = g
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Date > views[j].Date })
	return views
}
