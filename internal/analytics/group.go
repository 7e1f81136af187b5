// Package analytics turns a flat trade list into the rollups the journal
// views render: per-day groups, calendar grids, weekly heatmaps, mood
// correlation and the P&L curve.
//
// Everything here is a pure function of its inputs. Views recompute from the
// latest trade snapshot instead of patching earlier results.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"trade-journal/internal/models"
)

// BreakevenEpsilon is the P&L magnitude below which a trade counts as
// breakeven.
const BreakevenEpsilon = 0.01

// Outcome classifies a trade.
type Outcome int

const (
	OutcomeBreakeven Outcome = iota
	OutcomeWin
	OutcomeLoss
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "breakeven"
	}
}

func rawPnL(t models.Trade) float64 {
	if t.Breakeven || math.IsNaN(t.PnL) || math.IsInf(t.PnL, 0) {
		return 0
	}
	return t.PnL
}

// Classify returns the trade's outcome. Checks run in order: explicit
// breakeven flag or |pnl| < BreakevenEpsilon, then win, then loss.
func Classify(t models.Trade) Outcome {
	pnl := rawPnL(t)
	switch {
	case t.Breakeven || math.Abs(pnl) < BreakevenEpsilon:
		return OutcomeBreakeven
	case pnl > 0:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// EffectivePnL is the amount a trade contributes to totals: zero for every
// breakeven-classified trade, its P&L otherwise.
func EffectivePnL(t models.Trade) float64 {
	if Classify(t) == OutcomeBreakeven {
		return 0
	}
	return rawPnL(t)
}

// Group is the rollup of a set of trades. Per-day groups are the
// DayAggregate of the calendar and heatmap views.
//
// Wins+Losses+Breakevens always equals len(Trades) and TotalPnL is the sum
// of the trades' EffectivePnL.
type Group struct {
	Trades     []models.Trade `json:"trades"`
	TotalPnL   float64        `json:"total_pnl"`
	Wins       int            `json:"wins"`
	Losses     int            `json:"losses"`
	Breakevens int            `json:"breakevens"`

	total decimal.Decimal
}

// Add folds one trade into the group.
func (g *Group) Add(t models.Trade) {
	g.Trades = append(g.Trades, t)
	switch Classify(t) {
	case OutcomeWin:
		g.Wins++
	case OutcomeLoss:
		g.Losses++
	default:
		g.Breakevens++
	}
	g.total = g.total.Add(decimal.NewFromFloat(EffectivePnL(t)))
	g.TotalPnL = g.total.InexactFloat64()
}

// Count returns the number of trades in the group.
func (g *Group) Count() int {
	if g == nil {
		return 0
	}
	return len(g.Trades)
}

// WinRate returns wins as a percentage of all trades in the group.
func (g *Group) WinRate() float64 {
	if g.Count() == 0 {
		return 0
	}
	return float64(g.Wins) / float64(len(g.Trades)) * 100
}

// DayGroups maps each DateKey to that day's rollup.
type DayGroups map[models.DateKey]*Group

// Keys returns the date keys in ascending order.
func (d DayGroups) Keys() []models.DateKey {
	keys := make([]models.DateKey, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GroupByDate buckets trades by their DateKey. Trades without a date are
// skipped.
func GroupByDate(trades []models.Trade) DayGroups {
	groups := make(DayGroups)
	for _, t := range trades {
		key, ok := t.Key()
		if !ok {
			continue
		}
		g, exists := groups[key]
		if !exists {
			g = &Group{}
			groups[key] = g
		}
		g.Add(t)
	}
	return groups
}

// UnknownInstrument labels trades without an instrument.
const UnknownInstrument = "Unknown"

// GroupBySymbol buckets trades by instrument.
func GroupBySymbol(trades []models.Trade) map[string]*Group {
	groups := make(map[string]*Group)
	for _, t := range trades {
		sym := t.Instrument
		if sym == "" {
			sym = UnknownInstrument
		}
		g, ok := groups[sym]
		if !ok {
			g = &Group{}
			groups[sym] = g
		}
		g.Add(t)
	}
	return groups
}

// MondayIndex maps a weekday onto a Monday-first index (Monday = 0).
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayNames are the short weekday labels in Monday-first order.
var WeekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// GroupByWeekday buckets dated trades by weekday, Monday first. Every slot
// is non-nil.
func GroupByWeekday(trades []models.Trade) [7]*Group {
	var groups [7]*Group
	for i := range groups {
		groups[i] = &Group{}
	}
	for _, t := range trades {
		if !t.HasDate {
			continue
		}
		groups[MondayIndex(t.Date.Weekday())].Add(t)
	}
	return groups
}

// GroupByDirection buckets trades into long and short.
func GroupByDirection(trades []models.Trade) map[models.Direction]*Group {
	groups := map[models.Direction]*Group{
		models.DirectionLong:  {},
		models.DirectionShort: {},
	}
	for _, t := range trades {
		d := t.Direction
		if d != models.DirectionLong {
			d = models.DirectionShort
		}
		groups[d].Add(t)
	}
	return groups
}

// SortedSymbols returns the symbols of groups ordered by total P&L,
// best first, ties broken by name.
func SortedSymbols(groups map[string]*Group) []string {
	syms := make([]string, 0, len(groups))
	for s := range groups {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool {
		a, b := groups[syms[i]].TotalPnL, groups[syms[j]].TotalPnL
		if a != b {
			return a > b
		}
		return syms[i] < syms[j]
	})
	return syms
}
