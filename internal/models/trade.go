package models

import (
	"strings"
	"time"
)

// Direction is the side of a trade. Only "long" is distinguished; every
// other value is treated as short.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ParseDirection normalizes free-text direction or side values.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "long") {
		return DirectionLong
	}
	return DirectionShort
}

// Trade is the canonical trade record every view and aggregation consumes.
// Heterogeneous backend shapes are folded into it by NormalizeTrade.
type Trade struct {
	ID         string    `json:"id" csv:"id"`
	Date       time.Time `json:"date" csv:"-"`
	HasDate    bool      `json:"has_date" csv:"-"`
	PnL        float64   `json:"pnl" csv:"pnl"`
	Instrument string    `json:"instrument" csv:"instrument"`
	Direction  Direction `json:"direction" csv:"direction"`
	Breakeven  bool      `json:"breakeven" csv:"breakeven"`
	Session    string    `json:"session,omitempty" csv:"session"`
	Emotion    string    `json:"emotion,omitempty" csv:"emotion"`
	Notes      string    `json:"notes,omitempty" csv:"notes"`
}

// Key returns the trade's DateKey. ok is false for trades without a usable
// date; those are left out of every date-keyed aggregation.
func (t Trade) Key() (key DateKey, ok bool) {
	if !t.HasDate {
		return "", false
	}
	return KeyOf(t.Date), true
}

// RawTrade is the trade shape as the backend sends it. Field names vary
// between backend versions, so several aliases are accepted for most
// values.
type RawTrade struct {
	ID           FlexString  `json:"id"`
	TradeDate    *string     `json:"trade_date"`
	Date         *string     `json:"date"`
	CreatedAt    *string     `json:"created_at"`
	PnL          *FlexNumber `json:"pnl"`
	DollarAmount *FlexNumber `json:"dollarAmount"`
	Instrument   *string     `json:"instrument"`
	Symbol       *string     `json:"symbol"`
	Ticker       *string     `json:"ticker"`
	Direction    *string     `json:"direction"`
	Side         *string     `json:"side"`
	IsBreakeven  *FlexBool   `json:"isBreakeven"`
	Outcome      *string     `json:"outcome"`
	Session      *string     `json:"session"`
	Emotion      *string     `json:"emotion"`
	Notes        *string     `json:"notes"`
}

// NormalizeTrade maps a backend trade onto the canonical Trade. Date values
// are read in loc; a nil loc means time.Local.
func NormalizeTrade(raw RawTrade, loc *time.Location) Trade {
	if loc == nil {
		loc = time.Local
	}

	t := Trade{
		ID:         string(raw.ID),
		Instrument: firstString(raw.Instrument, raw.Symbol, raw.Ticker),
		Direction:  ParseDirection(firstString(raw.Direction, raw.Side)),
		Session:    firstString(raw.Session),
		Emotion:    firstString(raw.Emotion),
		Notes:      firstString(raw.Notes),
	}

	if s := firstString(raw.TradeDate, raw.Date, raw.CreatedAt); s != "" {
		t.Date, t.HasDate = ParseTradeTime(s, loc)
	}

	switch {
	case raw.PnL != nil && raw.PnL.Present:
		t.PnL = raw.PnL.Value
	case raw.DollarAmount != nil && raw.DollarAmount.Present:
		t.PnL = raw.DollarAmount.Value
	}

	if raw.IsBreakeven != nil && bool(*raw.IsBreakeven) {
		t.Breakeven = true
	}
	if raw.Outcome != nil && strings.EqualFold(strings.TrimSpace(*raw.Outcome), "be") {
		t.Breakeven = true
	}

	return t
}

// NormalizeTrades normalizes a batch of backend trades.
func NormalizeTrades(raws []RawTrade, loc *time.Location) []Trade {
	trades := make([]Trade, 0, len(raws))
	for _, raw := range raws {
		trades = append(trades, NormalizeTrade(raw, loc))
	}
	return trades
}

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseTradeTime parses the date formats the backend emits. Date-only values
// are midnight in loc, zone-less timestamps are wall-clock time in loc, and
// zoned timestamps are converted into loc before their calendar day is read.
func ParseTradeTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if len(s) == len(DateKeyLayout) {
		if t, err := time.ParseInLocation(DateKeyLayout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// firstString returns the first non-nil, non-blank value, trimmed.
func firstString(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(*v); s != "" {
			return s
		}
	}
	return ""
}
