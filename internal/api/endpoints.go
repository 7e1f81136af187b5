package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Backend routes.
const (
	PathRegister = "/api/register"
	PathLogin    = "/api/login"
	PathLogout   = "/api/logout"
	PathMe       = "/api/me"
	PathPassword = "/api/password"
	PathUser     = "/api/user"
	PathExport   = "/api/user/export"
	PathSettings = "/api/user/settings"
	PathTrades   = "/api/trades"
	PathJournal  = "/api/journal"
)

// decodeUser accepts a bare user object or one wrapped as {user: ...} or
// {data: ...}.
func decodeUser(b []byte) (*models.User, error) {
	body := unwrapData(b)
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var u models.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, apperrors.NewDataError("user", "", "unexpected user payload", err)
	}
	return &u, nil
}

// userOrMe decodes the user a sign-in call answered with, asking /api/me
// when the backend answered without one.
func (c *Client) userOrMe(ctx context.Context, b []byte) (*models.User, error) {
	if len(bytes.TrimSpace(b)) > 0 {
		if u, err := decodeUser(b); err == nil && u.Email != "" {
			return u, nil
		}
	}
	return c.Me(ctx)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := c.EnsureCSRF(ctx); err != nil {
		return nil, err
	}
	b, err := c.raw(ctx, http.MethodPost, PathRegister, nil, reg)
	if err != nil {
		return nil, err
	}
	return c.userOrMe(ctx, b)
}

// Login signs in. The session cookie stays in the client's jar.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := c.EnsureCSRF(ctx); err != nil {
		return nil, err
	}
	b, err := c.raw(ctx, http.MethodPost, PathLogin, nil, req)
	if err != nil {
		return nil, err
	}
	return c.userOrMe(ctx, b)
}

// Logout ends the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, PathLogout, nil, nil, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	b, err := c.raw(ctx, http.MethodGet, PathMe, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(b)
}

// ChangePassword updates the account password.
func (c *Client) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	return c.call(ctx, http.MethodPut, PathPassword, nil, change, nil)
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccount permanently removes the account.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	return c.call(ctx, http.MethodDelete, PathUser, nil, deleteAccountRequest{Password: password}, nil)
}

// Export downloads the account's data export as returned by the backend.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.raw(ctx, http.MethodGet, PathExport, nil, nil)
}

// UpdateSettings stores account settings and returns the saved values.
func (c *Client) UpdateSettings(ctx context.Context, s models.Settings) (*models.Settings, error) {
	b, err := c.raw(ctx, http.MethodPut, PathSettings, nil, s)
	if err != nil {
		return nil, err
	}
	saved := s
	body := unwrapData(b)
	var wrapped struct {
		Settings *models.Settings `json:"settings"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Settings != nil {
		saved = *wrapped.Settings
	} else if len(body) > 0 && body[0] == '{' {
		merged := s
		if err := json.Unmarshal(body, &merged); err == nil {
			saved = merged
		}
	}
	return &saved, nil
}

// Trades fetches every trade and normalizes it. The backend answers with a
// bare array or with {data: [...]}.
func (c *Client) Trades(ctx context.Context) ([]models.Trade, error) {
	b, err := c.raw(ctx, http.MethodGet, PathTrades, nil, nil)
	if err != nil {
		return nil, err
	}
	var raws []models.RawTrade
	body := unwrapData(b)
	if len(body) > 0 && string(body) != "null" {
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, apperrors.NewDataError("trades", "", "unexpected trades payload", err)
		}
	}
	return models.NormalizeTrades(raws, c.loc), nil
}

// journalQuery selects the entry of one day.
type journalQuery struct {
	Date string `url:"date,omitempty"`
}

func decodePayloads(b []byte) ([]models.JournalPayload, error) {
	body := unwrapData(b)
	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}
	if body[0] == '[' {
		var ps []models.JournalPayload
		if err := json.Unmarshal(body, &ps); err != nil {
			return nil, err
		}
		return ps, nil
	}
	var p models.JournalPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return []models.JournalPayload{p}, nil
}

// Journal fetches every journal entry, sorted by date.
func (c *Client) Journal(ctx context.Context) ([]models.JournalEntry, error) {
	b, err := c.raw(ctx, http.MethodGet, PathJournal, nil, nil)
	if err != nil {
		return nil, err
	}
	ps, err := decodePayloads(b)
	if err != nil {
		return nil, apperrors.NewDataError("journal", "", "unexpected journal payload", err)
	}
	return models.EntriesFromPayloads(ps), nil
}

// JournalForDate fetches the entry of one day. It returns nil without error
// when the day has no entry.
func (c *Client) JournalForDate(ctx context.Context, date models.DateKey) (*models.JournalEntry, error) {
	b, err := c.raw(ctx, http.MethodGet, PathJournal, journalQuery{Date: string(date)}, nil)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrDataNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ps, err := decodePayloads(b)
	if err != nil {
		return nil, apperrors.NewDataError("journal", string(date), "unexpected journal payload", err)
	}
	for _, e := range models.EntriesFromPayloads(ps) {
		if e.Date == date {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

// SaveJournal creates or replaces the entry for its date and returns the
// stored version.
func (c *Client) SaveJournal(ctx context.Context, entry models.JournalEntry) (*models.JournalEntry, error) {
	b, err := c.raw(ctx, http.MethodPost, PathJournal, nil, entry.ToPayload())
	if err != nil {
		return nil, err
	}
	ps, err := decodePayloads(b)
	if err == nil {
		for _, e := range models.EntriesFromPayloads(ps) {
			if e.Date == entry.Date {
				saved := e
				return &saved, nil
			}
		}
	}
	return &entry, nil
}
