package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"trade-journal/internal/analytics"
	"trade-journal/internal/models"
)

// FormatPnL formats P&L with an explicit sign for gains.
func FormatPnL(pnl float64, currency string) string {
	formatted := analytics.FormatMoney(pnl, currency)
	if pnl > 0 && formatted != currency+"0" && formatted != currency+"0.00" {
		return "+" + formatted
	}
	return formatted
}

// FormatCompactPnL fits a P&L into a calendar or heatmap cell: whole units
// below a thousand, one decimal of k above.
func FormatCompactPnL(pnl float64) string {
	sign := ""
	switch {
	case pnl > 0:
		sign = "+"
	case pnl < 0:
		sign = "-"
	}
	abs := math.Abs(pnl)
	switch {
	case abs >= 999.5e3:
		return fmt.Sprintf("%s%.1fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%.1fk", sign, abs/1e3)
	case math.Round(abs) == 0:
		return "0"
	}
	return fmt.Sprintf("%s%.0f", sign, abs)
}

// FormatWinRate formats a 0-100 win rate without a sign.
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate)
}

// FormatDate renders a day key with the configured layout. Keys that do not
// parse are returned as is.
func FormatDate(key models.DateKey, layout string) string {
	t, err := key.Time(time.UTC)
	if err != nil || layout == "" {
		return string(key)
	}
	return t.Format(layout)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatMood renders a mood as "emoji label", or a dash when unset.
func FormatMood(m models.Mood) string {
	info, ok := m.Info()
	if !ok {
		return "-"
	}
	return info.Emoji + " " + info.Label
}

// TruncateString truncates a string to a display width with an ellipsis.
// Line breaks are flattened first.
func TruncateString(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads a string to the right.
func PadRight(s string, width int) string {
	return s + strings.Repeat(" ", max(width-displayWidth(s), 0))
}

// Center centers a string.
func Center(s string, width int) string {
	padding := width - displayWidth(s)
	if padding <= 0 {
		return s
	}
	left := padding / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", padding-left)
}
