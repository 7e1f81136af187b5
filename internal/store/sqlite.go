package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// tradeTimeLayout keeps the original offset so a trade read back lands on
// the same calendar day it was keyed under.
const tradeTimeLayout = time.RFC3339Nano

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "failed to initialize schema")
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Trades snapshot from the last sync, in server order
	CREATE TABLE IF NOT EXISTS trades (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		trade_time TEXT,
		date_key TEXT,
		pnl REAL NOT NULL DEFAULT 0,
		instrument TEXT,
		direction TEXT NOT NULL,
		breakeven INTEGER DEFAULT 0,
		session TEXT,
		emotion TEXT,
		notes TEXT
	);

	-- Journal entries, one per day
	CREATE TABLE IF NOT EXISTS journal (
		date TEXT PRIMARY KEY,
		mood TEXT,
		checklist TEXT NOT NULL,
		outcome TEXT,
		takeaway TEXT,
		photos TEXT,
		updated_at TEXT
	);

	-- Local preferences
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		session_scoped INTEGER DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Session cookies
	CREATE TABLE IF NOT EXISTS session_cookies (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_date_key ON trades(date_key);
	CREATE INDEX IF NOT EXISTS idx_trades_instrument ON trades(instrument);
	CREATE INDEX IF NOT EXISTS idx_journal_mood ON journal(mood);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return dbError(err, "failed to create tables")
	}
	return nil
}

// dbError wraps a driver error so callers can match errors.ErrDatabaseError.
func dbError(err error, format string, args ...interface{}) error {
	return apperrors.Wrapf(fmt.Errorf("%w: %w", apperrors.ErrDatabaseError, err), format, args...)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Trades Methods
// ============================================================================

// ReplaceTrades swaps the cached trades for a new snapshot.
func (s *SQLiteStore) ReplaceTrades(ctx context.Context, trades []models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trades"); err != nil {
		return dbError(err, "failed to clear trades")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (id, trade_time, date_key, pnl, instrument, direction, breakeven, session, emotion, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbError(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for _, t := range trades {
		var tradeTime, dateKey sql.NullString
		if key, ok := t.Key(); ok {
			tradeTime = sql.NullString{String: t.Date.Format(tradeTimeLayout), Valid: true}
			dateKey = sql.NullString{String: string(key), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, t.ID, tradeTime, dateKey, t.PnL, t.Instrument, string(t.Direction),
			boolToInt(t.Breakeven), t.Session, t.Emotion, t.Notes)
		if err != nil {
			return dbError(err, "failed to insert trade %s", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction")
	}
	return nil
}

// GetTrades retrieves cached trades in the order the server sent them.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, trade_time, pnl, instrument, direction, breakeven, session, emotion, notes FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND instrument = ? COLLATE NOCASE"
		args = append(args, filter.Symbol)
	}
	if filter.StartDate != "" {
		query += " AND date_key >= ?"
		args = append(args, string(filter.StartDate))
	}
	if filter.EndDate != "" {
		query += " AND date_key <= ?"
		args = append(args, string(filter.EndDate))
	}

	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query trades")
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var tradeTime, instrument, session, emotion, notes sql.NullString
		var direction string
		var breakeven int

		if err := rows.Scan(&t.ID, &tradeTime, &t.PnL, &instrument, &direction, &breakeven, &session, &emotion, &notes); err != nil {
			return nil, dbError(err, "failed to scan trade")
		}

		if tradeTime.Valid {
			if ts, err := time.Parse(tradeTimeLayout, tradeTime.String); err == nil {
				t.Date = ts
				t.HasDate = true
			}
		}
		t.Instrument = instrument.String
		t.Direction = models.ParseDirection(direction)
		t.Breakeven = breakeven == 1
		t.Session = session.String
		t.Emotion = emotion.String
		t.Notes = notes.String
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// ============================================================================
// Journal Methods
// ============================================================================

// SaveJournalEntry inserts or overwrites the entry for its date.
func (s *SQLiteStore) SaveJournalEntry(ctx context.Context, entry *models.JournalEntry) error {
	return saveJournal(ctx, s.db, entry)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveJournal(ctx context.Context, db execer, entry *models.JournalEntry) error {
	checklist, _ := json.Marshal(entry.Checklist.Map())
	photos, _ := json.Marshal(entry.Photos)

	var updated sql.NullString
	if !entry.UpdatedAt.IsZero() {
		updated = sql.NullString{String: entry.UpdatedAt.Format(time.RFC3339Nano), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO journal (date, mood, checklist, outcome, takeaway, photos, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(entry.Date), entry.Mood.Value(), string(checklist), entry.Outcome, entry.Takeaway, string(photos), updated)
	if err != nil {
		return dbError(err, "failed to save journal entry %s", entry.Date)
	}
	return nil
}

// GetJournalEntry returns the entry for one day.
func (s *SQLiteStore) GetJournalEntry(ctx context.Context, date models.DateKey) (*models.JournalEntry, error) {
	entries, err := s.GetJournal(ctx, JournalFilter{StartDate: date, EndDate: date, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.NewDataError("journal", string(date), "no entry for this day", apperrors.ErrDataNotFound)
	}
	return &entries[0], nil
}

// likeEscaper makes LIKE treat wildcard characters in a search literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GetJournal retrieves journal entries, newest first.
func (s *SQLiteStore) GetJournal(ctx context.Context, filter JournalFilter) ([]models.JournalEntry, error) {
	query := "SELECT date, mood, checklist, outcome, takeaway, photos, updated_at FROM journal WHERE 1=1"
	args := []interface{}{}

	if filter.StartDate != "" {
		query += " AND date >= ?"
		args = append(args, string(filter.StartDate))
	}
	if filter.EndDate != "" {
		query += " AND date <= ?"
		args = append(args, string(filter.EndDate))
	}
	if filter.Mood != models.MoodUnknown {
		query += " AND mood = ?"
		args = append(args, filter.Mood.Value())
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query += ` AND (outcome LIKE ? ESCAPE '\' OR takeaway LIKE ? ESCAPE '\')`
		like := "%" + likeEscaper.Replace(q) + "%"
		args = append(args, like, like)
	}

	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query journal")
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var date, checklistJSON string
		var mood, outcome, takeaway, photosJSON, updated sql.NullString
		if err := rows.Scan(&date, &mood, &checklistJSON, &outcome, &takeaway, &photosJSON, &updated); err != nil {
			return nil, dbError(err, "failed to scan journal entry")
		}

		e.Date = models.DateKey(date)
		if info, ok := models.ResolveMood(mood.String); ok {
			e.Mood = info.Mood
		}
		var checks map[string]bool
		json.Unmarshal([]byte(checklistJSON), &checks)
		e.Checklist = models.MigrateChecklist(checks)
		e.Outcome = outcome.String
		e.Takeaway = takeaway.String
		if photosJSON.Valid {
			json.Unmarshal([]byte(photosJSON.String), &e.Photos)
		}
		if updated.Valid {
			e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated.String)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ReplaceJournal swaps the cached journal for a new snapshot.
func (s *SQLiteStore) ReplaceJournal(ctx context.Context, entries []models.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM journal"); err != nil {
		return dbError(err, "failed to clear journal")
	}
	for i := range entries {
		if err := saveJournal(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction")
	}
	return nil
}

// ============================================================================
// Preferences Methods
// ============================================================================

// GetPreference returns a stored preference. ok is false when unset.
func (s *SQLiteStore) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, dbError(err, "failed to get preference %s", key)
	}
	return value, true, nil
}

// SetPreference stores a preference.
func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (key, value, session_scoped, updated_at)
		VALUES (?, ?, ?, ?)
	`, key, value, boolToInt(sessionScoped[key]), time.Now())
	if err != nil {
		return dbError(err, "failed to set preference %s", key)
	}
	return nil
}

// ClearSessionPreferences drops the preferences that only live for one
// signed-in session.
func (s *SQLiteStore) ClearSessionPreferences(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences WHERE session_scoped = 1"); err != nil {
		return dbError(err, "failed to clear session preferences")
	}
	return nil
}

// ============================================================================
// Session Methods
// ============================================================================

// SaveSession replaces the stored session cookies.
func (s *SQLiteStore) SaveSession(ctx context.Context, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_cookies"); err != nil {
		return dbError(err, "failed to clear session")
	}
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO session_cookies (name, value) VALUES (?, ?)", c.Name, c.Value); err != nil {
			return dbError(err, "failed to save cookie %s", c.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit transaction")
	}
	return nil
}

// LoadSession returns the stored session cookies, if any.
func (s *SQLiteStore) LoadSession(ctx context.Context) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM session_cookies ORDER BY name")
	if err != nil {
		return nil, dbError(err, "failed to query session")
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{Path: "/"}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, dbError(err, "failed to scan cookie")
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// ClearSession forgets the signed-in session.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_cookies"); err != nil {
		return dbError(err, "failed to clear session")
	}
	return nil
}

// ============================================================================
// Sync Methods
// ============================================================================

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, dataType).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync records a sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, dataType, t, time.Now())
	if err != nil {
		return dbError(err, "failed to set last sync")
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
