package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mood is a trader's emotional state for a journal day. The zero value is
// MoodUnknown.
type Mood int

const (
	MoodUnknown Mood = iota
	MoodConfident
	MoodGood
	MoodMeh
	MoodBad
	MoodWorst
)

// MoodInfo carries a mood's stable identifiers. Hex is the emoji code point
// used to build a platform-independent pictograph reference.
type MoodInfo struct {
	Mood  Mood   `json:"-"`
	Value string `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Hex   string `json:"hex"`
}

var moods = []MoodInfo{
	{Mood: MoodConfident, Value: "confident", Label: "Confident", Emoji: "😎", Hex: "1f60e"},
	{Mood: MoodGood, Value: "good", Label: "Good", Emoji: "🙂", Hex: "1f642"},
	{Mood: MoodMeh, Value: "meh", Label: "Meh", Emoji: "😐", Hex: "1f610"},
	{Mood: MoodBad, Value: "bad", Label: "Bad", Emoji: "🙁", Hex: "1f641"},
	{Mood: MoodWorst, Value: "worst", Label: "Worst", Emoji: "😫", Hex: "1f62b"},
}

// legacyMoods maps mood labels stored by older clients onto canonical values.
var legacyMoods = map[string]string{
	"excited":    "confident",
	"great":      "confident",
	"happy":      "good",
	"calm":       "good",
	"neutral":    "meh",
	"ok":         "meh",
	"okay":       "meh",
	"stressed":   "bad",
	"anxious":    "bad",
	"sad":        "bad",
	"frustrated": "worst",
	"angry":      "worst",
	"terrible":   "worst",
}

// Moods returns the canonical moods in display order.
func Moods() []MoodInfo {
	out := make([]MoodInfo, len(moods))
	copy(out, moods)
	return out
}

// ResolveMood finds the canonical mood for a stored key. The key may be a
// canonical value, an emoji, a label in any case, or a legacy label.
// Unresolvable keys return false and the caller treats the mood as unknown.
func ResolveMood(key string) (MoodInfo, bool) {
	k := strings.TrimSpace(key)
	if k == "" {
		return MoodInfo{}, false
	}

	if alias, ok := legacyMoods[k]; ok {
		k = alias
	} else if alias, ok := legacyMoods[strings.ToLower(k)]; ok {
		k = alias
	}

	lower := strings.ToLower(k)
	for _, m := range moods {
		if m.Value == k || m.Emoji == k || m.Label == k || strings.ToLower(m.Label) == lower {
			return m, true
		}
	}
	return MoodInfo{}, false
}

// Info returns the MoodInfo for m. ok is false for MoodUnknown.
func (m Mood) Info() (MoodInfo, bool) {
	for _, info := range moods {
		if info.Mood == m {
			return info, true
		}
	}
	return MoodInfo{}, false
}

// Value returns the canonical value, or "" for MoodUnknown.
func (m Mood) Value() string {
	info, _ := m.Info()
	return info.Value
}

// String implements fmt.Stringer.
func (m Mood) String() string {
	if info, ok := m.Info(); ok {
		return info.Label
	}
	return "Unknown"
}

// MarshalJSON encodes the mood as its canonical value, or null.
func (m Mood) MarshalJSON() ([]byte, error) {
	if m == MoodUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value())
}

// UnmarshalJSON accepts any key ResolveMood understands. Unknown keys decode
// to MoodUnknown rather than failing.
func (m *Mood) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*m = MoodUnknown
		return nil
	}
	info, _ := ResolveMood(s)
	*m = info.Mood
	return nil
}

// PictographURL returns the image reference for a mood's hex code.
func PictographURL(hex string) string {
	return fmt.Sprintf("https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/svg/%s.svg", hex)
}
