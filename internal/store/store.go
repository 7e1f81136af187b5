// Package store provides the local cache of trades, journal entries,
// preferences and the signed-in session.
package store

import (
	"context"
	"net/http"
	"time"

	"trade-journal/internal/models"
)

// DataStore defines the interface for local persistence. The backend is
// authoritative; everything here is a cache that sync overwrites.
type DataStore interface {
	// Trades
	ReplaceTrades(ctx context.Context, trades []models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	// Journal
	SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error
	GetJournalEntry(ctx context.Context, date models.DateKey) (*models.JournalEntry, error)
	GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error)
	ReplaceJournal(ctx context.Context, entries []models.JournalEntry) error

	// Preferences
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
	ClearSessionPreferences(ctx context.Context) error

	// Session
	SaveSession(ctx context.Context, cookies []*http.Cookie) error
	LoadSession(ctx context.Context) ([]*http.Cookie, error)
	ClearSession(ctx context.Context) error

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades. Date bounds are
// inclusive and compare against the trade's DateKey; undated trades only
// match a filter without date bounds.
type TradeFilter struct {
	Symbol    string
	StartDate models.DateKey
	EndDate   models.DateKey
	Limit     int
}

// JournalFilter represents filters for querying journal entries.
type JournalFilter struct {
	StartDate models.DateKey
	EndDate   models.DateKey
	Mood      models.Mood
	Query     string
	Limit     int
}

// Preference keys.
const (
	PrefTheme      = "theme"
	PrefPromoShown = "promo_shown"
)

// sessionScoped lists preferences that are dropped on login and logout.
var sessionScoped = map[string]bool{
	PrefPromoShown: true,
}
