package store

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

func TestGetTrades_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, 2, d, 10, 0, 0, 0, time.UTC) }
	trades := []models.Trade{
		{ID: "1", Date: day(2), HasDate: true, PnL: 10, Instrument: "ES", Direction: models.DirectionLong},
		{ID: "2", Date: day(3), HasDate: true, PnL: -5, Instrument: "NQ", Direction: models.DirectionShort},
		{ID: "3", Date: day(4), HasDate: true, PnL: 7, Instrument: "es", Direction: models.DirectionLong},
		{ID: "4", PnL: 3, Instrument: "ES", Direction: models.DirectionShort},
	}
	if err := store.ReplaceTrades(ctx, trades); err != nil {
		t.Fatalf("ReplaceTrades: %v", err)
	}

	tests := []struct {
		name   string
		filter TradeFilter
		want   []string
	}{
		{"all", TradeFilter{}, []string{"1", "2", "3", "4"}},
		{"symbol is case insensitive", TradeFilter{Symbol: "ES"}, []string{"1", "3", "4"}},
		{"date range excludes undated", TradeFilter{StartDate: "2026-02-03", EndDate: "2026-02-04"}, []string{"2", "3"}},
		{"limit", TradeFilter{Limit: 2}, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetTrades(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetTrades: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d trades, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("trade %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	if err := store.ReplaceTrades(ctx, trades[:1]); err != nil {
		t.Fatalf("ReplaceTrades: %v", err)
	}
	got, _ := store.GetTrades(ctx, TradeFilter{})
	if len(got) != 1 {
		t.Errorf("snapshot should replace, got %d trades", len(got))
	}
}

func TestJournal_SaveAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &models.JournalEntry{
		Date:      "2026-02-05",
		Mood:      models.MoodGood,
		Checklist: models.Checklist{FollowedPlan: true, WaitedForSetup: true},
		Outcome:   "Two clean longs",
		Takeaway:  "Wait for the retest",
		Photos:    []string{"a.png"},
		UpdatedAt: time.Date(2026, 2, 5, 18, 0, 0, 0, time.UTC),
	}
	if err := store.SaveJournalEntry(ctx, entry); err != nil {
		t.Fatalf("SaveJournalEntry: %v", err)
	}

	got, err := store.GetJournalEntry(ctx, "2026-02-05")
	if err != nil {
		t.Fatalf("GetJournalEntry: %v", err)
	}
	if got.Mood != models.MoodGood || got.Outcome != entry.Outcome || got.Takeaway != entry.Takeaway {
		t.Errorf("entry mismatch: %+v", got)
	}
	if got.Checklist != entry.Checklist {
		t.Errorf("checklist mismatch: %+v", got.Checklist)
	}
	if len(got.Photos) != 1 || !got.UpdatedAt.Equal(entry.UpdatedAt) {
		t.Errorf("photos or timestamp mismatch: %+v", got)
	}

	entry.Mood = models.MoodBad
	if err := store.SaveJournalEntry(ctx, entry); err != nil {
		t.Fatalf("SaveJournalEntry overwrite: %v", err)
	}
	if err := store.SaveJournalEntry(ctx, &models.JournalEntry{Date: "2026-02-06", Mood: models.MoodConfident, Outcome: "flat day"}); err != nil {
		t.Fatalf("SaveJournalEntry: %v", err)
	}

	all, _ := store.GetJournal(ctx, JournalFilter{})
	if len(all) != 2 || all[0].Date != "2026-02-06" {
		t.Fatalf("expected 2 entries newest first, got %+v", all)
	}

	bad, _ := store.GetJournal(ctx, JournalFilter{Mood: models.MoodBad})
	if len(bad) != 1 || bad[0].Date != "2026-02-05" {
		t.Errorf("mood filter wrong: %+v", bad)
	}

	found, _ := store.GetJournal(ctx, JournalFilter{Query: "retest"})
	if len(found) != 1 {
		t.Errorf("query filter wrong: %+v", found)
	}

	_, err = store.GetJournalEntry(ctx, "2026-03-01")
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("missing entry should be ErrDataNotFound, got %v", err)
	}

	if err := store.ReplaceJournal(ctx, []models.JournalEntry{{Date: "2026-01-01"}}); err != nil {
		t.Fatalf("ReplaceJournal: %v", err)
	}
	all, _ = store.GetJournal(ctx, JournalFilter{})
	if len(all) != 1 || all[0].Date != "2026-01-01" || all[0].Mood != models.MoodUnknown {
		t.Errorf("replace should leave only the new snapshot, got %+v", all)
	}
}

func TestPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetPreference(ctx, PrefTheme); err != nil || ok {
		t.Fatalf("unset preference: ok=%v err=%v", ok, err)
	}

	store.SetPreference(ctx, PrefTheme, models.ThemeDark)
	store.SetPreference(ctx, PrefPromoShown, "1")

	if err := store.ClearSessionPreferences(ctx); err != nil {
		t.Fatalf("ClearSessionPreferences: %v", err)
	}

	if v, ok, _ := store.GetPreference(ctx, PrefTheme); !ok || v != models.ThemeDark {
		t.Errorf("theme should survive, got %q %v", v, ok)
	}
	if _, ok, _ := store.GetPreference(ctx, PrefPromoShown); ok {
		t.Error("promo flag should be cleared with the session")
	}
}

func TestSessionCookies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cookies := []*http.Cookie{
		{Name: "laravel_session", Value: "abc"},
		{Name: "XSRF-TOKEN", Value: "tok%3D"},
		nil,
	}
	if err := store.SaveSession(ctx, cookies); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err := store.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(got) != 2 || got[0].Name != "XSRF-TOKEN" || got[0].Value != "tok%3D" || got[1].Value != "abc" {
		t.Errorf("unexpected cookies %+v", got)
	}

	if err := store.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if got, _ := store.LoadSession(ctx); len(got) != 0 {
		t.Errorf("session should be empty, got %+v", got)
	}
}

func TestLastSyncPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	at := time.Date(2026, 2, 5, 18, 30, 0, 0, time.UTC)

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if !s1.GetLastSync("trades").IsZero() {
		t.Error("fresh store should have no sync time")
	}
	if err := MarkSynced(s1, SyncTypeTrades, at); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s2.Close()
	if got := s2.GetLastSync("trades"); !got.Equal(at) {
		t.Errorf("last sync = %v, want %v", got, at)
	}
}

func TestDataFreshness(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 2, 5, 18, 0, 0, 0, time.UTC)

	never := GetDataFreshness(store, SyncTypeJournal, time.Hour, now)
	if never.IsFresh || FormatFreshness(never) != "Never synced" {
		t.Errorf("unsynced data: %+v %q", never, FormatFreshness(never))
	}

	MarkSynced(store, SyncTypeTrades, now.Add(-30*time.Minute))
	fresh := GetDataFreshness(store, SyncTypeTrades, time.Hour, now)
	if !fresh.IsFresh || FormatFreshness(fresh) != "Updated 30 minutes ago" {
		t.Errorf("fresh data: %+v %q", fresh, FormatFreshness(fresh))
	}

	stale := GetDataFreshness(store, SyncTypeTrades, 10*time.Minute, now)
	if stale.IsFresh || FormatFreshness(stale) != "Stale data - updated 30 minutes ago" {
		t.Errorf("stale data: %+v %q", stale, FormatFreshness(stale))
	}

	if all := GetAllDataFreshness(store, 0, now); len(all) != 2 || all[0].DataType != SyncTypeTrades {
		t.Errorf("unexpected freshness list %+v", all)
	}
}

func TestJournal_QueryMatchesWildcardsLiterally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []models.JournalEntry{
		{Date: "2026-02-02", Mood: models.MoodGood, Outcome: "Took 50% off at the first target"},
		{Date: "2026-02-03", Mood: models.MoodMeh, Outcome: "Chopped around 5000"},
		{Date: "2026-02-04", Mood: models.MoodBad, Takeaway: "stop_loss moved twice"},
		{Date: "2026-02-05", Mood: models.MoodBad, Takeaway: "stop loss held"},
	}
	if err := store.ReplaceJournal(ctx, entries); err != nil {
		t.Fatalf("ReplaceJournal: %v", err)
	}

	tests := []struct {
		query string
		want  []models.DateKey
	}{
		{"50%", []models.DateKey{"2026-02-02"}},
		{"stop_loss", []models.DateKey{"2026-02-04"}},
		{"stop loss", []models.DateKey{"2026-02-05"}},
		{`\`, nil},
	}
	for _, tt := range tests {
		got, err := store.GetJournal(ctx, JournalFilter{Query: tt.query})
		if err != nil {
			t.Fatalf("GetJournal(%q): %v", tt.query, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("query %q matched %d entries, want %v", tt.query, len(got), tt.want)
			continue
		}
		for i := range got {
			if got[i].Date != tt.want[i] {
				t.Errorf("query %q matched %s, want %s", tt.query, got[i].Date, tt.want[i])
			}
		}
	}
}

func TestClosedStore_DatabaseError(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	ctx := context.Background()
	if _, err := s.GetTrades(ctx, TradeFilter{}); !apperrors.Is(err, apperrors.ErrDatabaseError) {
		t.Errorf("GetTrades on a closed store = %v, want ErrDatabaseError", err)
	}
	if err := s.SetPreference(ctx, PrefTheme, "dark"); !apperrors.Is(err, apperrors.ErrDatabaseError) {
		t.Errorf("SetPreference on a closed store = %v, want ErrDatabaseError", err)
	}
}
