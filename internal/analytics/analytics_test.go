package analytics

import (
	"testing"
	"time"

	"trade-journal/internal/models"
)

func dated(id string, day time.Time, pnl float64) models.Trade {
	return models.Trade{ID: id, Date: day, HasDate: true, PnL: pnl, Instrument: "ES", Direction: models.DirectionLong}
}

func TestClassify_Epsilon(t *testing.T) {
	tr := dated("1", time.Date(2026, 2, 5, 10, 0, 0, 0, time.Local), -0.005)

	if Classify(tr) != OutcomeBreakeven {
		t.Fatalf("expected breakeven, got %v", Classify(tr))
	}

	g := GroupByDate([]models.Trade{tr})["2026-02-05"]
	if g == nil {
		t.Fatal("missing group for 2026-02-05")
	}
	if g.TotalPnL != 0 {
		t.Errorf("epsilon trade should contribute 0, got %v", g.TotalPnL)
	}
	if g.Breakevens != 1 || g.Wins != 0 || g.Losses != 0 {
		t.Errorf("unexpected counters %+v", g)
	}
}

func TestClassify_FlagOverridesPnL(t *testing.T) {
	tr := dated("1", time.Now(), 250)
	tr.Breakeven = true
	if Classify(tr) != OutcomeBreakeven || EffectivePnL(tr) != 0 {
		t.Error("flagged trade must be breakeven with zero pnl")
	}

	tests := []struct {
		pnl  float64
		want Outcome
	}{
		{0.01, OutcomeWin},
		{-0.01, OutcomeLoss},
		{0.0099, OutcomeBreakeven},
		{0, OutcomeBreakeven},
	}
	for _, tt := range tests {
		if got := Classify(dated("x", time.Now(), tt.pnl)); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.pnl, got, tt.want)
		}
	}
}

func TestGroupByDate_SkipsUndated(t *testing.T) {
	day := time.Date(2026, 2, 5, 9, 30, 0, 0, time.Local)
	trades := []models.Trade{
		dated("1", day, 100),
		dated("2", day.Add(10*time.Hour), -40),
		{ID: "3", PnL: 500},
	}
	groups := GroupByDate(trades)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups["2026-02-05"]
	if g.Count() != 2 || g.TotalPnL != 60 || g.Wins != 1 || g.Losses != 1 {
		t.Errorf("unexpected group %+v", g)
	}
	if g.WinRate() != 50 {
		t.Errorf("win rate = %v", g.WinRate())
	}
}

func TestGroupByWeekdayAndSymbol(t *testing.T) {
	mon := time.Date(2026, 2, 2, 10, 0, 0, 0, time.Local) // Monday
	sun := time.Date(2026, 2, 8, 10, 0, 0, 0, time.Local)
	trades := []models.Trade{
		dated("1", mon, 10),
		dated("2", sun, -5),
		{ID: "3", PnL: 7, Instrument: "NQ", HasDate: false},
	}
	trades[1].Instrument = "NQ"
	trades[1].Direction = models.DirectionShort

	wd := GroupByWeekday(trades)
	if wd[0].Count() != 1 || wd[6].Count() != 1 {
		t.Errorf("weekday buckets wrong: mon=%d sun=%d", wd[0].Count(), wd[6].Count())
	}
	for i := 1; i < 6; i++ {
		if wd[i] == nil || wd[i].Count() != 0 {
			t.Errorf("slot %d should be empty and non-nil", i)
		}
	}

	sym := GroupBySymbol(trades)
	if sym["NQ"].Count() != 2 || sym["ES"].Count() != 1 {
		t.Errorf("symbol buckets wrong: %v", sym)
	}
	if order := SortedSymbols(sym); order[0] != "ES" {
		t.Errorf("ES should rank first, got %v", order)
	}

	dir := GroupByDirection(trades)
	if dir[models.DirectionLong].Count() != 1 || dir[models.DirectionShort].Count() != 2 {
		t.Errorf("direction buckets wrong")
	}
}

func TestSummarize(t *testing.T) {
	d1 := time.Date(2026, 2, 2, 10, 0, 0, 0, time.Local)
	d2 := d1.AddDate(0, 0, 1)
	s := Summarize([]models.Trade{
		dated("1", d1, 300),
		dated("2", d1, -100),
		dated("3", d2, -50),
		dated("4", d2, 0.001),
	})
	if s.TotalTrades != 4 || s.Wins != 1 || s.Losses != 2 || s.Breakevens != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.NetPnL != 150 || s.GrossProfit != 300 || s.GrossLoss != -150 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.ProfitFactor != 2 {
		t.Errorf("profit factor = %v", s.ProfitFactor)
	}
	if s.LargestLoss != -100 || s.AvgLoss != -75 {
		t.Errorf("loss stats wrong %+v", s)
	}
	if s.BestDay != "2026-02-02" || s.WorstDay != "2026-02-03" || s.TradingDays != 2 {
		t.Errorf("day stats wrong %+v", s)
	}
}

func TestEquityCurveAndDrawdown(t *testing.T) {
	base := time.Date(2026, 2, 2, 10, 0, 0, 0, time.Local)
	trades := []models.Trade{
		dated("1", base, 100),
		dated("2", base.AddDate(0, 0, 1), -150),
		dated("3", base.AddDate(0, 0, 2), 80),
	}
	curve := EquityCurve(GroupByDate(trades))
	if len(curve) != 3 {
		t.Fatalf("expected 3 points, got %d", len(curve))
	}
	want := []float64{100, -50, 30}
	for i, p := range curve {
		if p.Cumulative != want[i] {
			t.Errorf("point %d cumulative = %v, want %v", i, p.Cumulative, want[i])
		}
	}
	if dd := MaxDrawdown(curve); dd != 150 {
		t.Errorf("max drawdown = %v", dd)
	}
}

func TestMoodCorrelation(t *testing.T) {
	d1 := time.Date(2026, 2, 2, 10, 0, 0, 0, time.Local)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)
	trades := []models.Trade{
		dated("1", d1, 200),
		dated("2", d1, 100),
		dated("3", d2, -80),
		dated("4", d3, 40),
	}
	entries := []models.JournalEntry{
		{Date: "2026-02-02", Mood: models.MoodConfident},
		{Date: "2026-02-03", Mood: models.MoodBad},
	}

	stats := MoodCorrelation(trades, entries)
	if len(stats) != 3 {
		t.Fatalf("expected 3 mood rows, got %d: %+v", len(stats), stats)
	}
	if stats[0].Mood != models.MoodConfident || stats[0].Days != 1 || stats[0].TotalPnL != 300 || stats[0].AvgDayPnL != 300 {
		t.Errorf("confident row wrong: %+v", stats[0])
	}
	if stats[1].Mood != models.MoodBad || stats[1].TotalPnL != -80 {
		t.Errorf("bad row wrong: %+v", stats[1])
	}
	if stats[2].Mood != models.MoodUnknown || stats[2].Trades != 1 {
		t.Errorf("unknown row wrong: %+v", stats[2])
	}
}

func TestTradesForDateAndMerge(t *testing.T) {
	d1 := time.Date(2026, 2, 5, 23, 59, 0, 0, time.Local)
	d2 := time.Date(2026, 2, 6, 0, 1, 0, 0, time.Local)
	trades := []models.Trade{dated("1", d1, 10), dated("2", d2, 20), {ID: "3"}}

	got := TradesForDate(trades, "2026-02-05")
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("unexpected trades %+v", got)
	}

	entry := &models.JournalEntry{Date: "2026-02-05", Mood: models.MoodGood}
	view := MergeDay("2026-02-05", entry, trades)
	if view.Entry != entry || view.Group == nil || view.Group.TotalPnL != 10 {
		t.Errorf("unexpected view %+v", view)
	}

	empty := MergeDay("2026-03-01", nil, trades)
	if empty.Group != nil || len(empty.Trades) != 0 {
		t.Errorf("expected empty view, got %+v", empty)
	}

	days := MergeDays([]models.JournalEntry{{Date: "2026-01-30"}}, trades)
	if len(days) != 3 || days[0].Date != "2026-02-06" || days[2].Date != "2026-01-30" {
		t.Errorf("unexpected merge order %+v", days)
	}
	if days[2].Entry == nil || len(days[2].Trades) != 0 {
		t.Errorf("entry-only day wrong: %+v", days[2])
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{12.5, "$12.50"},
		{-40, "-$40"},
		{1234567.891, "$1,234,567.89"},
		{-1200, "-$1,200"},
		{-0.001, "$0.00"},
		{999, "$999"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in, "$"); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
