package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
)

const (
	testToken   = "tok=abc"
	testSession = "session-1"
)

// fakeBackend is a minimal cookie/CSRF backend.
type fakeBackend struct {
	mu         sync.Mutex
	requestIDs []string
	lastBody   map[string]interface{}
	lastQuery  string
	unverified bool
	trades     string
	settings   string
	journal    map[string]models.JournalPayload
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{
		trades:  `[]`,
		journal: map[string]models.JournalPayload{},
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok%3Dabc", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct-horse" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"message": "These credentials do not match our records.",
			})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: testSession, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]interface{}{"id": 7, "name": "Sam", "email": req.Email, "email_verified_at": "2026-01-01T00:00:00Z"},
		})
	})

	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": "7", "name": "Sam", "email": "sam@example.com"})
	})

	mux.HandleFunc("/api/trades", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		body := fb.trades
		unverified := fb.unverified
		fb.mu.Unlock()
		if unverified {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Your email address is not verified."})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})

	mux.HandleFunc("/api/journal", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			fb.lastQuery = r.URL.RawQuery
			if d := r.URL.Query().Get("date"); d != "" {
				p, ok := fb.journal[d]
				if !ok {
					writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
					return
				}
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": p})
				return
			}
			list := make([]models.JournalPayload, 0, len(fb.journal))
			for _, p := range fb.journal {
				list = append(list, p)
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var p models.JournalPayload
			json.NewDecoder(r.Body).Decode(&p)
			p.ID = "99"
			fb.journal[p.Date] = p
			writeJSON(w, http.StatusCreated, p)
		}
	})

	mux.HandleFunc("/api/user/settings", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.lastBody = body
		reply := fb.settings
		fb.mu.Unlock()
		if reply != "" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, reply)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"settings": body})
	})

	mux.HandleFunc("/api/user/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"trades":[],"journal":[]}`)
	})

	// Wrap the mux with the session and CSRF checks a Sanctum backend does.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.requestIDs = append(fb.requestIDs, r.Header.Get("X-Request-ID"))
		fb.mu.Unlock()

		if r.Method != http.MethodGet && r.Header.Get("X-XSRF-TOKEN") != testToken {
			writeJSON(w, 419, map[string]string{"message": "CSRF token mismatch."})
			return
		}
		public := r.URL.Path == "/sanctum/csrf-cookie" || r.URL.Path == "/api/login"
		if !public {
			c, err := r.Cookie("laravel_session")
			if err != nil || c.Value != testSession {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
				return
			}
		}
		mux.ServeHTTP(w, r)
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return fb, srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func login(t *testing.T, c *Client) {
	t.Helper()
	u, err := c.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Email != "sam@example.com" || !u.EmailVerified() || u.ID != "7" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestLogin_CSRFAndSession(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)

	login(t, c)

	if got := c.CSRFToken(); got != testToken {
		t.Errorf("CSRFToken() = %q, want unescaped %q", got, testToken)
	}

	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.Name != "Sam" || u.EmailVerified() {
		t.Errorf("unexpected me %+v", u)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	seen := map[string]bool{}
	for _, id := range fb.requestIDs {
		if id == "" || seen[id] {
			t.Errorf("request id %q missing or reused", id)
		}
		seen[id] = true
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "nope"})
	var ae *apperrors.APIError
	if !errors.As(err, &ae) || ae.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 APIError, got %v", err)
	}
	if msg := apperrors.UserMessage(err); msg != "These credentials do not match our records." {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestStatusMapping(t *testing.T) {
	fb, srv := newFakeBackend(t)
	ctx := context.Background()

	anon := newTestClient(t, srv.URL)
	_, err := anon.Trades(ctx)
	if !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	c := newTestClient(t, srv.URL)
	login(t, c)
	fb.mu.Lock()
	fb.unverified = true
	fb.mu.Unlock()
	_, err = c.Trades(ctx)
	if !apperrors.Is(err, apperrors.ErrEmailNotVerified) {
		t.Errorf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestCSRFMismatch(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)
	login(t, c)

	req, err := c.NewRequest(context.Background(), http.MethodPost, PathLogout, nil, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("raw request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 419 {
		t.Fatalf("request without token should be rejected, got %d", resp.StatusCode)
	}

	c.SetCookies([]*http.Cookie{{Name: "XSRF-TOKEN", Value: "stale", Path: "/"}})
	err = c.Logout(context.Background())
	if !apperrors.Is(err, apperrors.ErrCSRFMismatch) {
		t.Errorf("expected ErrCSRFMismatch, got %v", err)
	}
}

func TestTrades_EnvelopeAndBareArray(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)
	login(t, c)
	ctx := context.Background()

	fb.mu.Lock()
	fb.trades = `{"data":[{"id":1,"trade_date":"2026-02-05","pnl":"120.5","symbol":"ES","side":"LONG"},{"id":2,"dollarAmount":-40,"instrument":"NQ","direction":"short","date":""}]}`
	fb.mu.Unlock()

	trades, err := c.Trades(ctx)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades", len(trades))
	}
	if key, ok := trades[0].Key(); !ok || key != "2026-02-05" || trades[0].PnL != 120.5 || trades[0].Direction != models.DirectionLong {
		t.Errorf("first trade wrong: %+v", trades[0])
	}
	if trades[1].HasDate || trades[1].PnL != -40 {
		t.Errorf("second trade wrong: %+v", trades[1])
	}

	fb.mu.Lock()
	fb.trades = `[{"id":"a","created_at":"2026-02-06T14:00:00Z","pnl":5}]`
	fb.mu.Unlock()
	trades, err = c.Trades(ctx)
	if err != nil || len(trades) != 1 || trades[0].ID != "a" {
		t.Fatalf("bare array: %v %+v", err, trades)
	}
}

func TestJournal_SaveAndFetch(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)
	login(t, c)
	ctx := context.Background()

	entry := models.JournalEntry{
		Date:      "2026-02-05",
		Mood:      models.MoodConfident,
		Checklist: models.Checklist{FollowedPlan: true},
		Outcome:   "Green day",
		Takeaway:  "Size up slowly",
	}
	saved, err := c.SaveJournal(ctx, entry)
	if err != nil {
		t.Fatalf("SaveJournal: %v", err)
	}
	if saved.Outcome != "Green day" || saved.Takeaway != "Size up slowly" || saved.Mood != models.MoodConfident {
		t.Errorf("saved entry wrong: %+v", saved)
	}

	fb.mu.Lock()
	stored := fb.journal["2026-02-05"]
	fb.mu.Unlock()
	if stored.Rating != "confident" || !stored.ProcessChecks["followed_plan"] {
		t.Errorf("wire payload wrong: %+v", stored)
	}
	if out, take := models.DecodeContent(stored.Content); out != "Green day" || take != "Size up slowly" {
		t.Errorf("content not encoded as a pair: %q", stored.Content)
	}

	got, err := c.JournalForDate(ctx, "2026-02-05")
	if err != nil || got == nil || got.Takeaway != "Size up slowly" {
		t.Fatalf("JournalForDate: %v %+v", err, got)
	}
	fb.mu.Lock()
	q := fb.lastQuery
	fb.mu.Unlock()
	if q != "date=2026-02-05" {
		t.Errorf("query = %q", q)
	}

	missing, err := c.JournalForDate(ctx, "2026-03-01")
	if err != nil || missing != nil {
		t.Errorf("missing day should be nil, nil; got %+v %v", missing, err)
	}

	all, err := c.Journal(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("Journal: %v %+v", err, all)
	}
}

func TestSettingsAndExport(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)
	login(t, c)
	ctx := context.Background()

	saved, err := c.UpdateSettings(ctx, models.Settings{Theme: models.ThemeDark, Currency: "USD"})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if saved.Theme != models.ThemeDark || saved.Currency != "USD" {
		t.Errorf("saved settings wrong: %+v", saved)
	}
	fb.mu.Lock()
	if fb.lastBody["theme"] != "dark" {
		t.Errorf("request body wrong: %v", fb.lastBody)
	}
	fb.mu.Unlock()

	data, err := c.Export(ctx)
	if err != nil || !strings.Contains(string(data), `"journal"`) {
		t.Errorf("Export: %v %s", err, data)
	}
}

func TestSessionSurvivesNewClient(t *testing.T) {
	_, srv := newFakeBackend(t)
	first := newTestClient(t, srv.URL)
	login(t, first)

	second := newTestClient(t, srv.URL)
	second.SetCookies(first.Cookies())
	if _, err := second.Me(context.Background()); err != nil {
		t.Fatalf("restored session should be signed in: %v", err)
	}

	if err := second.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	second.ClearCookies()
	if _, err := second.Me(context.Background()); !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.Me(context.Background())
	if !apperrors.Is(err, apperrors.ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if !strings.Contains(apperrors.UserMessage(err), "Could not reach") {
		t.Errorf("UserMessage = %q", apperrors.UserMessage(err))
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "http://"} {
		if _, err := NewClient(Config{BaseURL: u}); !apperrors.Is(err, apperrors.ErrConfigInvalid) {
			t.Errorf("NewClient(%q) = %v, want ErrConfigInvalid", u, err)
		}
	}
}

func TestNewClient_Timeout(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost:8000"})
	if err != nil {
		t.Fatal(err)
	}
	if c.http.Timeout != 0 {
		t.Errorf("zero timeout should keep the HTTP client default, got %v", c.http.Timeout)
	}

	c, err = NewClient(Config{BaseURL: "http://localhost:8000", Timeout: 3 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if c.http.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.http.Timeout)
	}
}

func TestUpdateSettings_UndecodableReply(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := newTestClient(t, srv.URL)
	login(t, c)

	fb.mu.Lock()
	fb.settings = `{"theme": 5, "currency": "EUR"}`
	fb.mu.Unlock()

	want := models.Settings{Theme: models.ThemeLight, Currency: "USD"}
	saved, err := c.UpdateSettings(context.Background(), want)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if *saved != want {
		t.Errorf("saved = %+v, want the submitted settings %+v", *saved, want)
	}
}

func TestErrorResponse_LoggedRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "The given data was invalid.",
			"token":   "s3cr3t-token-value",
		})
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := logging.WithOperation(zerolog.New(&buf).Level(zerolog.DebugLevel), "tradejournal me")
	ctx := logging.WithLogger(context.Background(), logger)

	c := newTestClient(t, srv.URL)
	if _, err := c.Me(ctx); !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"operation":"tradejournal me"`) {
		t.Errorf("request log should carry the context logger's fields:\n%s", out)
	}
	if !strings.Contains(out, "API error response") || !strings.Contains(out, "The given data was invalid.") {
		t.Errorf("error payload not logged:\n%s", out)
	}
	if strings.Contains(out, "s3cr3t-token-value") {
		t.Errorf("token leaked into the log:\n%s", out)
	}
}
