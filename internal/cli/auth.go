package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/internal/validation"
)

// addAuthCommands adds account and session commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRegisterCmd(app))
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newMeCmd(app))
	rootCmd.AddCommand(newPasswordCmd(app))
	rootCmd.AddCommand(newAccountCmd(app))
	rootCmd.AddCommand(newSettingsCmd(app))
	rootCmd.AddCommand(newThemeCmd(app))
}

// prompter reads answers from the command's input. One reader is shared so
// several prompts can consume piped input in order.
type prompter struct {
	raw io.Reader
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	raw := cmd.InOrStdin()
	return &prompter{raw: raw, in: bufio.NewReader(raw), out: cmd.OutOrStdout()}
}

// ask returns value if set, otherwise prompts for it.
func (p *prompter) ask(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, _ := p.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// askSecret is ask without echo when the input is a terminal. Piped input is
// read line by line like any other answer.
func (p *prompter) askSecret(label, value string) string {
	if value != "" {
		return value
	}
	f, ok := p.raw.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.ask(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return ""
	}
	return string(secret)
}

func newRegisterCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a journal account",
		Example: `  tradejournal register --name "Sam Lee" --email sam@example.com
  tradejournal register   # prompts for every field`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			p := newPrompter(cmd)

			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			reg := models.Registration{
				Name:  strings.TrimSpace(p.ask("Name", name)),
				Email: strings.TrimSpace(p.ask("Email", email)),
			}
			if err := validation.Required("name", reg.Name); err != nil {
				return err
			}
			if err := validation.Email(reg.Email); err != nil {
				return err
			}
			reg.Password = p.askSecret("Password", password)
			if err := validation.Password("password", reg.Password); err != nil {
				return err
			}
			reg.PasswordConfirmation = reg.Password
			if password == "" {
				reg.PasswordConfirmation = p.askSecret("Confirm password", "")
			}
			if err := validation.PasswordsMatch(reg.Password, reg.PasswordConfirmation); err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			user, err := app.API.Register(ctx, reg)
			if err != nil {
				return err
			}
			app.startSession(ctx)

			if output.IsJSON() {
				return output.JSON(user)
			}
			output.Success("✓ Account created for %s", user.Email)
			if !user.EmailVerified() {
				output.Warning("Check your inbox and verify your email before syncing.")
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password (prompted when omitted)")

	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the journal server",
		Long: `Sign in with email and password.

The session cookie is stored in the local cache so later commands stay
signed in until 'tradejournal logout'.`,
		Example: `  tradejournal login --email sam@example.com
  tradejournal login --email sam@example.com --remember`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			p := newPrompter(cmd)

			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			remember, _ := cmd.Flags().GetBool("remember")

			req := models.LoginRequest{
				Email:    strings.TrimSpace(p.ask("Email", email)),
				Remember: remember,
			}
			if err := validation.Email(req.Email); err != nil {
				return err
			}
			req.Password = p.askSecret("Password", password)
			if err := validation.Required("password", req.Password); err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			user, err := app.API.Login(ctx, req)
			if err != nil {
				return err
			}
			app.startSession(ctx)

			if output.IsJSON() {
				return output.JSON(user)
			}
			output.Success("✓ Signed in as %s", user.Name)
			if !user.EmailVerified() {
				output.Warning("Your email is not verified yet. Journal data stays locked until it is.")
				return nil
			}
			output.Dim("Run `tradejournal sync` to fetch your trades and journal.")
			return nil
		},
	}

	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password (prompted when omitted)")
	cmd.Flags().Bool("remember", false, "Keep the session across server restarts")

	return cmd
}

// startSession persists a fresh session and resets per-session state.
func (app *App) startSession(ctx context.Context) {
	app.persistSession(ctx)
	if app.Store != nil {
		if err := app.Store.ClearSessionPreferences(ctx); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to reset session preferences")
		}
	}
}

// endSession forgets the session locally.
func (app *App) endSession(ctx context.Context) error {
	app.API.ClearCookies()
	if app.Store == nil {
		return nil
	}
	if err := app.Store.ClearSession(ctx); err != nil {
		return err
	}
	return app.Store.ClearSessionPreferences(ctx)
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			// An expired session is already signed out server side.
			if err := app.API.Logout(ctx); err != nil && !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
				app.Logger.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
			}
			if err := app.endSession(ctx); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"logged_out": true})
			}
			output.Success("✓ Signed out")
			return nil
		},
	}
}

func newMeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "me",
		Aliases: []string{"whoami", "status"},
		Short:   "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			user, err := app.API.Me(ctx)
			if err != nil {
				return err
			}
			app.persistSession(ctx)

			if output.IsJSON() {
				return output.JSON(user)
			}
			output.Bold("Account")
			output.Printf("  Name:       %s\n", user.Name)
			output.Printf("  Email:      %s\n", user.Email)
			if user.EmailVerified() {
				output.Printf("  Verified:   %s\n", output.Green("yes"))
			} else {
				output.Printf("  Verified:   %s\n", output.Yellow("no"))
			}
			output.Println()
			showSettings(output, user.Settings)

			if app.Store != nil {
				output.Println()
				output.Bold("Local cache")
				for _, f := range store.GetAllDataFreshness(app.Store, store.DefaultStaleAfter, app.Now()) {
					output.Printf("  %-10s  %s\n", f.DataType, store.FormatFreshness(f))
				}
			}
			return nil
		},
	}
}

func newPasswordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			p := newPrompter(cmd)

			current, _ := cmd.Flags().GetString("current")
			next, _ := cmd.Flags().GetString("new")

			change := models.PasswordChange{
				CurrentPassword: p.askSecret("Current password", current),
			}
			if err := validation.Required("current_password", change.CurrentPassword); err != nil {
				return err
			}
			change.Password = p.askSecret("New password", next)
			if err := validation.Password("password", change.Password); err != nil {
				return err
			}
			change.PasswordConfirmation = change.Password
			if next == "" {
				change.PasswordConfirmation = p.askSecret("Confirm new password", "")
			}
			if err := validation.PasswordsMatch(change.Password, change.PasswordConfirmation); err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			if err := app.API.ChangePassword(ctx, change); err != nil {
				return err
			}
			app.persistSession(ctx)

			if output.IsJSON() {
				return output.JSON(map[string]bool{"changed": true})
			}
			output.Success("✓ Password changed")
			return nil
		},
	}

	cmd.Flags().String("current", "", "Current password (prompted when omitted)")
	cmd.Flags().String("new", "", "New password (prompted when omitted)")

	return cmd
}

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Export or delete your account data",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download everything the server holds for you",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			data, err := app.API.Export(ctx)
			if err != nil {
				return err
			}
			app.persistSession(ctx)

			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"path": path, "bytes": len(data)})
			}
			output.Success("✓ Exported %d bytes to %s", len(data), path)
			return nil
		},
	}
	exportCmd.Flags().StringP("out", "o", "", "Write the export to a file instead of stdout")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete your account",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			p := newPrompter(cmd)

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				answer := p.ask("Type DELETE to remove your account and all journal data", "")
				if strings.TrimSpace(answer) != "DELETE" {
					output.Warning("Aborted")
					return nil
				}
			}
			password, _ := cmd.Flags().GetString("password")
			password = p.askSecret("Password", password)
			if err := validation.Required("password", password); err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			if err := app.API.DeleteAccount(ctx, password); err != nil {
				return err
			}
			if err := app.endSession(ctx); err != nil {
				return err
			}
			if app.Store != nil {
				if err := app.Store.ReplaceTrades(ctx, nil); err != nil {
					return err
				}
				if err := app.Store.ReplaceJournal(ctx, nil); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"deleted": true})
			}
			output.Success("✓ Account deleted")
			return nil
		},
	}
	deleteCmd.Flags().String("password", "", "Password (prompted when omitted)")
	deleteCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(exportCmd, deleteCmd)
	return cmd
}

func showSettings(output *Output, s models.Settings) {
	output.Bold("Settings")
	output.Printf("  Theme:      %s\n", orDash(s.Theme))
	output.Printf("  Currency:   %s\n", orDash(s.Currency))
	output.Printf("  Timezone:   %s\n", orDash(s.Timezone))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update account settings",
		Example: `  tradejournal settings
  tradejournal settings --theme dark --currency USD`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			var update models.Settings
			changed := false
			if cmd.Flags().Changed("theme") {
				v, _ := cmd.Flags().GetString("theme")
				theme, err := validation.Theme(v)
				if err != nil {
					return err
				}
				update.Theme, changed = theme, true
			}
			if cmd.Flags().Changed("currency") {
				update.Currency, _ = cmd.Flags().GetString("currency")
				update.Currency = strings.ToUpper(strings.TrimSpace(update.Currency))
				if err := validation.Required("currency", update.Currency); err != nil {
					return err
				}
				changed = true
			}
			if cmd.Flags().Changed("timezone") {
				update.Timezone, _ = cmd.Flags().GetString("timezone")
				if err := validation.Required("timezone", update.Timezone); err != nil {
					return err
				}
				changed = true
			}

			if !changed {
				user, err := app.API.Me(ctx)
				if err != nil {
					return err
				}
				app.persistSession(ctx)
				if output.IsJSON() {
					return output.JSON(user.Settings)
				}
				showSettings(output, user.Settings)
				return nil
			}

			saved, err := app.API.UpdateSettings(ctx, update)
			if err != nil {
				return err
			}
			app.persistSession(ctx)
			if update.Theme != "" && app.Store != nil {
				if err := app.Store.SetPreference(ctx, store.PrefTheme, update.Theme); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Settings saved")
			showSettings(output, *saved)
			return nil
		},
	}

	cmd.Flags().String("theme", "", "light, dark or system")
	cmd.Flags().String("currency", "", "Display currency code")
	cmd.Flags().String("timezone", "", "IANA timezone name")

	return cmd
}

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|system]",
		Short: "Show or set the terminal colour theme",
		Long:  "Show or set the colour theme used on this machine. The choice is stored locally.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireStore(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 0 {
				output := app.output(cmd)
				theme, ok, err := app.Store.GetPreference(ctx, store.PrefTheme)
				if err != nil {
					return err
				}
				if !ok {
					theme = models.ThemeSystem
				}
				if output.IsJSON() {
					return output.JSON(map[string]string{"theme": theme})
				}
				output.Println(theme)
				return nil
			}

			theme, err := validation.Theme(args[0])
			if err != nil {
				return err
			}
			if err := app.Store.SetPreference(ctx, store.PrefTheme, theme); err != nil {
				return err
			}
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"theme": theme})
			}
			output.Success("✓ Theme set to %s", theme)
			return nil
		},
	}
}
