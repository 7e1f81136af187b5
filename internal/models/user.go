package models

import "strings"

// Theme values accepted by the settings endpoint and the local theme flag.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// User is the signed-in account as returned by /api/me.
type User struct {
	ID              FlexString `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *string    `json:"email_verified_at"`
	Settings        Settings   `json:"settings"`
}

// EmailVerified reports whether the backend has a verification timestamp.
func (u User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil && strings.TrimSpace(*u.EmailVerifiedAt) != ""
}

// Settings are account-level preferences stored by the backend.
type Settings struct {
	Theme    string `json:"theme,omitempty"`
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Registration is the body of POST /api/register.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// PasswordChange is the body of PUT /api/password.
type PasswordChange struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
