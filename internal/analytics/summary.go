package analytics

import (
	"github.com/shopspring/decimal"

	"trade-journal/internal/models"
)

// Summary holds headline performance figures for a set of trades.
type Summary struct {
	TotalTrades  int            `json:"total_trades" csv:"total_trades"`
	Wins         int            `json:"wins" csv:"wins"`
	Losses       int            `json:"losses" csv:"losses"`
	Breakevens   int            `json:"breakevens" csv:"breakevens"`
	WinRate      float64        `json:"win_rate" csv:"win_rate"`
	GrossProfit  float64        `json:"gross_profit" csv:"gross_profit"`
	GrossLoss    float64        `json:"gross_loss" csv:"gross_loss"`
	NetPnL       float64        `json:"net_pnl" csv:"net_pnl"`
	ProfitFactor float64        `json:"profit_factor" csv:"profit_factor"`
	AvgWin       float64        `json:"avg_win" csv:"avg_win"`
	AvgLoss      float64        `json:"avg_loss" csv:"avg_loss"`
	LargestWin   float64        `json:"largest_win" csv:"largest_win"`
	LargestLoss  float64        `json:"largest_loss" csv:"largest_loss"`
	Expectancy   float64        `json:"expectancy" csv:"expectancy"`
	TradingDays  int            `json:"trading_days" csv:"trading_days"`
	BestDay      models.DateKey `json:"best_day,omitempty" csv:"best_day"`
	BestDayPnL   float64        `json:"best_day_pnl" csv:"best_day_pnl"`
	WorstDay     models.DateKey `json:"worst_day,omitempty" csv:"worst_day"`
	WorstDayPnL  float64        `json:"worst_day_pnl" csv:"worst_day_pnl"`
}

// Summarize computes headline figures. Undated trades count towards trade
// totals but not towards day statistics.
func Summarize(trades []models.Trade) Summary {
	var s Summary
	var profit, loss decimal.Decimal

	for _, t := range trades {
		s.TotalTrades++
		pnl := EffectivePnL(t)
		switch Classify(t) {
		case OutcomeWin:
			s.Wins++
			profit = profit.Add(decimal.NewFromFloat(pnl))
			if pnl > s.LargestWin {
				s.LargestWin = pnl
			}
		case OutcomeLoss:
			s.Losses++
			loss = loss.Add(decimal.NewFromFloat(pnl))
			if pnl < s.LargestLoss {
				s.LargestLoss = pnl
			}
		default:
			s.Breakevens++
		}
	}

	s.GrossProfit = profit.InexactFloat64()
	s.GrossLoss = loss.InexactFloat64()
	s.NetPnL = profit.Add(loss).InexactFloat64()

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
		s.Expectancy = s.NetPnL / float64(s.TotalTrades)
	}
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
	}
	if !loss.IsZero() {
		s.ProfitFactor = profit.Div(loss.Neg()).InexactFloat64()
	}

	days := GroupByDate(trades)
	s.TradingDays = len(days)
	for i, key := range days.Keys() {
		pnl := days[key].TotalPnL
		if i == 0 || pnl > s.BestDayPnL {
			s.BestDay, s.BestDayPnL = key, pnl
		}
		if i == 0 || pnl < s.WorstDayPnL {
			s.WorstDay, s.WorstDayPnL = key, pnl
		}
	}

	return s
}

// CurvePoint is one day on the cumulative P&L curve.
type CurvePoint struct {
	Date       models.DateKey `json:"date" csv:"date"`
	DayPnL     float64        `json:"day_pnl" csv:"day_pnl"`
	Cumulative float64        `json:"cumulative" csv:"cumulative"`
	Trades     int            `json:"trades" csv:"trades"`
}

// EquityCurve returns the running P&L across days in date order.
func EquityCurve(days DayGroups) []CurvePoint {
	points := make([]CurvePoint, 0, len(days))
	var running decimal.Decimal
	for _, key := range days.Keys() {
		g := days[key]
		running = running.Add(g.total)
		points = append(points, CurvePoint{
			Date:       key,
			DayPnL:     g.TotalPnL,
			Cumulative: running.InexactFloat64(),
			Trades:     len(g.Trades),
		})
	}
	return points
}

// MaxDrawdown returns the largest peak-to-trough fall of the curve, as a
// non-negative amount.
func MaxDrawdown(curve []CurvePoint) float64 {
	var peak, dd float64
	for _, p := range curve {
		if p.Cumulative > peak {
			peak = p.Cumulative
		}
		if peak-p.Cumulative > dd {
			dd = peak - p.Cumulative
		}
	}
	return dd
}

// MoodStat correlates a journal mood with the trading results of the days it
// was recorded on.
type MoodStat struct {
	Mood      models.Mood `json:"mood" csv:"-"`
	Label     string      `json:"label" csv:"mood"`
	Days      int         `json:"days" csv:"days"`
	Trades    int         `json:"trades" csv:"trades"`
	TotalPnL  float64     `json:"total_pnl" csv:"total_pnl"`
	AvgDayPnL float64     `json:"avg_day_pnl" csv:"avg_day_pnl"`
	WinRate   float64     `json:"win_rate" csv:"win_rate"`
}

// GroupByMood buckets trades by the mood journaled on their day. Trades on
// days without an entry, or with an unresolvable mood, land in MoodUnknown.
func GroupByMood(trades []models.Trade, entries []models.JournalEntry) map[models.Mood]*Group {
	moodByDay := make(map[models.DateKey]models.Mood, len(entries))
	for _, e := range entries {
		moodByDay[e.Date] = e.Mood
	}

	groups := make(map[models.Mood]*Group)
	for _, t := range trades {
		mood := models.MoodUnknown
		if key, ok := t.Key(); ok {
			mood = moodByDay[key]
		}
		g, ok := groups[mood]
		if !ok {
			g = &Group{}
			groups[mood] = g
		}
		g.Add(t)
	}
	return groups
}

// MoodCorrelation summarizes results per mood in canonical order, with the
// unknown bucket last. Moods without trades are omitted.
func MoodCorrelation(trades []models.Trade, entries []models.JournalEntry) []MoodStat {
	moodByDay := make(map[models.DateKey]models.Mood, len(entries))
	for _, e := range entries {
		moodByDay[e.Date] = e.Mood
	}

	dayCount := make(map[models.Mood]int)
	for key := range GroupByDate(trades) {
		dayCount[moodByDay[key]]++
	}

	groups := GroupByMood(trades, entries)
	order := make([]models.Mood, 0, 6)
	for _, info := range models.Moods() {
		order = append(order, info.Mood)
	}
	order = append(order, models.MoodUnknown)

	stats := make([]MoodStat, 0, len(order))
	for _, mood := range order {
		g, ok := groups[mood]
		if !ok {
			continue
		}
		st := MoodStat{
			Mood:     mood,
			Label:    mood.String(),
			Days:     dayCount[mood],
			Trades:   len(g.Trades),
			TotalPnL: g.TotalPnL,
			WinRate:  g.WinRate(),
		}
		if st.Days > 0 {
			st.AvgDayPnL = st.TotalPnL / float64(st.Days)
		}
		stats = append(stats, st)
	}
	return stats
}
