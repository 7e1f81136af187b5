package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// MaxPhotos is the number of photos a journal day can hold.
const MaxPhotos = 3

// Checklist records the process behaviours a trader ticks off for a day.
type Checklist struct {
	FollowedPlan    bool `json:"followed_plan"`
	RespectedStops  bool `json:"respected_stops"`
	SizedCorrectly  bool `json:"sized_correctly"`
	NoRevengeTrades bool `json:"no_revenge_trades"`
	WaitedForSetup  bool `json:"waited_for_setup"`
}

// ChecklistItem describes one checklist field.
type ChecklistItem struct {
	Key   string
	Label string
}

// ChecklistItems lists the checklist fields in display order.
var ChecklistItems = []ChecklistItem{
	{"followed_plan", "Followed plan"},
	{"respected_stops", "Respected stops"},
	{"sized_correctly", "Sized correctly"},
	{"no_revenge_trades", "No revenge trades"},
	{"waited_for_setup", "Waited for setup"},
}

// legacyChecks maps normalized legacy keys (lowercase, letters and digits
// only) onto checklist keys.
var legacyChecks = map[string]string{
	"followedplan":     "followed_plan",
	"followplan":       "followed_plan",
	"plan":             "followed_plan",
	"stucktoplan":      "followed_plan",
	"respectedstops":   "respected_stops",
	"respectedstop":    "respected_stops",
	"stoploss":         "respected_stops",
	"stops":            "respected_stops",
	"sizedcorrectly":   "sized_correctly",
	"positionsize":     "sized_correctly",
	"sizing":           "sized_correctly",
	"risksize":         "sized_correctly",
	"norevengetrades":  "no_revenge_trades",
	"norevengetrade":   "no_revenge_trades",
	"norevenge":        "no_revenge_trades",
	"norevengetrading": "no_revenge_trades",
	"waitedforsetup":   "waited_for_setup",
	"waitedsetup":      "waited_for_setup",
	"patience":         "waited_for_setup",
	"patient":          "waited_for_setup",
}

func normalizeCheckKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MigrateChecklist converts a string-keyed checklist map, as stored by older
// clients, into a Checklist. Unknown keys are dropped. It also accepts the
// current wire form, so it is safe to run on every payload.
func MigrateChecklist(m map[string]bool) Checklist {
	var c Checklist
	for k, v := range m {
		if !v {
			continue
		}
		c.Set(legacyChecks[normalizeCheckKey(k)], true)
	}
	return c
}

// Set sets the field named by its wire key. It reports whether key is known.
func (c *Checklist) Set(key string, v bool) bool {
	switch key {
	case "followed_plan":
		c.FollowedPlan = v
	case "respected_stops":
		c.RespectedStops = v
	case "sized_correctly":
		c.SizedCorrectly = v
	case "no_revenge_trades":
		c.NoRevengeTrades = v
	case "waited_for_setup":
		c.WaitedForSetup = v
	default:
		return false
	}
	return true
}

// Map returns the wire form with every field present.
func (c Checklist) Map() map[string]bool {
	return map[string]bool{
		"followed_plan":     c.FollowedPlan,
		"respected_stops":   c.RespectedStops,
		"sized_correctly":   c.SizedCorrectly,
		"no_revenge_trades": c.NoRevengeTrades,
		"waited_for_setup":  c.WaitedForSetup,
	}
}

// Score counts ticked items.
func (c Checklist) Score() int {
	n := 0
	for _, v := range c.Map() {
		if v {
			n++
		}
	}
	return n
}

// JournalEntry is one day's reflection.
type JournalEntry struct {
	Date      DateKey   `json:"date"`
	Mood      Mood      `json:"mood"`
	Checklist Checklist `json:"checklist"`
	Outcome   string    `json:"outcome"`
	Takeaway  string    `json:"takeaway"`
	Photos    []string  `json:"photos,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type journalContent struct {
	Outcome  *string `json:"outcome"`
	Takeaway *string `json:"takeaway"`
}

// EncodeContent packs outcome and takeaway into the single content field the
// backend stores.
func EncodeContent(outcome, takeaway string) string {
	b, _ := json.Marshal(journalContent{Outcome: &outcome, Takeaway: &takeaway})
	return string(b)
}

// DecodeContent reverses EncodeContent. Text that is not an encoded pair,
// including content written before the pair format existed, is returned
// whole as the outcome with an empty takeaway.
func DecodeContent(s string) (outcome, takeaway string) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return s, ""
	}
	var c journalContent
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return s, ""
	}
	if c.Outcome == nil && c.Takeaway == nil {
		return s, ""
	}
	if c.Outcome != nil {
		outcome = *c.Outcome
	}
	if c.Takeaway != nil {
		takeaway = *c.Takeaway
	}
	return outcome, takeaway
}

// JournalPayload is the journal entry shape on the wire.
type JournalPayload struct {
	ID            FlexString      `json:"id,omitempty"`
	Date          string          `json:"date"`
	Content       string          `json:"content"`
	Rating        FlexString      `json:"rating"`
	ProcessChecks map[string]bool `json:"process_checks"`
	Photos        []string        `json:"photos"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

// ToPayload converts an entry into its wire shape.
func (e JournalEntry) ToPayload() JournalPayload {
	outcome, takeaway := e.Outcome, e.Takeaway
	photos := e.Photos
	if photos == nil {
		photos = []string{}
	}
	return JournalPayload{
		Date:          string(e.Date),
		Content:       EncodeContent(outcome, takeaway),
		Rating:        FlexString(e.Mood.Value()),
		ProcessChecks: e.Checklist.Map(),
		Photos:        photos,
	}
}

// EntryFromPayload converts a wire payload into an entry, resolving legacy
// moods and checklist keys. ok is false when the payload has no usable date.
func EntryFromPayload(p JournalPayload) (JournalEntry, bool) {
	date := strings.TrimSpace(p.Date)
	if len(date) > len(DateKeyLayout) {
		date = date[:len(DateKeyLayout)]
	}
	key, err := ParseDateKey(date)
	if err != nil {
		return JournalEntry{}, false
	}

	outcome, takeaway := DecodeContent(p.Content)
	mood, _ := ResolveMood(string(p.Rating))

	e := JournalEntry{
		Date:      key,
		Mood:      mood.Mood,
		Checklist: MigrateChecklist(p.ProcessChecks),
		Outcome:   outcome,
		Takeaway:  takeaway,
		Photos:    p.Photos,
	}
	if len(e.Photos) > MaxPhotos {
		e.Photos = e.Photos[:MaxPhotos]
	}
	if p.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, p.UpdatedAt); err == nil {
			e.UpdatedAt = t
		}
	}
	return e, true
}

// EntriesFromPayloads converts payloads, dropping undated ones, sorted by
// date.
func EntriesFromPayloads(ps []JournalPayload) []JournalEntry {
	entries := make([]JournalEntry, 0, len(ps))
	for _, p := range ps {
		if e, ok := EntryFromPayload(p); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}
