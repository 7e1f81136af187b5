package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/internal/validation"
)

// addJournalCommands adds the daily journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Daily journal",
		Long: `Write and review one journal entry per trading day.

An entry holds a mood, a process checklist, what happened (outcome), what
to keep or change (takeaway) and up to three photo references. Entries are
shown next to that day's trades.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalDay(cmd, app, app.today())
		},
	}

	journalCmd.AddCommand(newJournalTodayCmd(app))
	journalCmd.AddCommand(newJournalShowCmd(app))
	journalCmd.AddCommand(newJournalAddCmd(app))
	journalCmd.AddCommand(newJournalListCmd(app))
	journalCmd.AddCommand(newJournalMoodsCmd(app))

	rootCmd.AddCommand(journalCmd)
}

func newJournalTodayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's entry and trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalDay(cmd, app, app.today())
		},
	}
}

func newJournalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Show one day's entry and trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := validation.DateKey("date", args[0])
			if err != nil {
				return err
			}
			return runJournalDay(cmd, app, key)
		},
	}
}

// loadDay joins the cached entry and trades of one day.
func (app *App) loadDay(ctx context.Context, key models.DateKey) (analytics.DayView, error) {
	entry, err := app.Store.GetJournalEntry(ctx, key)
	if err != nil && !apperrors.Is(err, apperrors.ErrDataNotFound) {
		return analytics.DayView{}, err
	}
	trades, err := app.Store.GetTrades(ctx, store.TradeFilter{StartDate: key, EndDate: key})
	if err != nil {
		return analytics.DayView{}, err
	}
	return analytics.MergeDay(key, entry, trades), nil
}

func runJournalDay(cmd *cobra.Command, app *App, key models.DateKey) error {
	output := app.output(cmd)
	ctx, cancel := app.commandContext(cmd)
	defer cancel()
	if err := app.ensureFresh(ctx, output); err != nil {
		return err
	}

	view, err := app.loadDay(ctx, key)
	if err != nil {
		return err
	}
	if output.IsJSON() {
		return output.JSON(view)
	}
	app.renderDay(output, view)
	return nil
}

func (app *App) renderDay(output *Output, view analytics.DayView) {
	output.Bold("%s", FormatDate(view.Date, app.Config.UI.DateFormat))
	output.Println()

	if e := view.Entry; e != nil {
		output.Printf("  Mood:       %s\n", FormatMood(e.Mood))
		output.Printf("  Checklist:  %d/%d\n", e.Checklist.Score(), len(models.ChecklistItems))
		checks := e.Checklist.Map()
		for _, item := range models.ChecklistItems {
			mark := output.DimText("[ ]")
			if checks[item.Key] {
				mark = output.Green("[x]")
			}
			output.Printf("    %s %s\n", mark, item.Label)
		}
		if e.Outcome != "" {
			output.Println()
			output.Bold("Outcome")
			output.Println(indent(e.Outcome, "  "))
		}
		if e.Takeaway != "" {
			output.Println()
			output.Bold("Takeaway")
			output.Println(indent(e.Takeaway, "  "))
		}
		if len(e.Photos) > 0 {
			output.Println()
			output.Bold("Photos")
			for _, p := range e.Photos {
				output.Printf("  %s\n", p)
			}
		}
	} else {
		output.Dim("No journal entry. Add one with `tradejournal journal add %s --mood good`.", view.Date)
	}

	output.Println()
	if len(view.Trades) == 0 {
		output.Dim("No trades on this day.")
		return
	}
	table := NewTable(output, "INSTRUMENT", "SIDE", "P&L", "RESULT", "NOTES")
	for _, t := range view.Trades {
		table.AddRow(
			orDash(t.Instrument),
			string(t.Direction),
			output.FormatPnL(analytics.EffectivePnL(t)),
			analytics.Classify(t).String(),
			TruncateString(t.Notes, 40),
		)
	}
	table.Render()
	output.Println()
	renderTotals(output, "Day", view.Group)
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// applyJournalFlags merges the changed flags into entry.
func applyJournalFlags(cmd *cobra.Command, entry *models.JournalEntry) error {
	flags := cmd.Flags()
	if flags.Changed("mood") {
		v, _ := flags.GetString("mood")
		info, err := validation.Mood(v)
		if err != nil {
			return err
		}
		entry.Mood = info.Mood
	}
	if flags.Changed("outcome") {
		v, _ := flags.GetString("outcome")
		v = validation.SanitizeText(v)
		if err := validation.Text("outcome", v); err != nil {
			return err
		}
		entry.Outcome = v
	}
	if flags.Changed("takeaway") {
		v, _ := flags.GetString("takeaway")
		v = validation.SanitizeText(v)
		if err := validation.Text("takeaway", v); err != nil {
			return err
		}
		entry.Takeaway = v
	}

	set := func(name string, value bool) error {
		keys, _ := flags.GetStringSlice(name)
		for _, k := range keys {
			k = strings.ToLower(strings.TrimSpace(k))
			if !entry.Checklist.Set(k, value) {
				valid := make([]string, 0, len(models.ChecklistItems))
				for _, item := range models.ChecklistItems {
					valid = append(valid, item.Key)
				}
				return apperrors.NewValidationError(name, k, "must be one of "+strings.Join(valid, ", "))
			}
		}
		return nil
	}
	if err := set("check", true); err != nil {
		return err
	}
	if err := set("uncheck", false); err != nil {
		return err
	}

	if clearPhotos, _ := flags.GetBool("clear-photos"); clearPhotos {
		entry.Photos = nil
	}
	if flags.Changed("photo") {
		photos, _ := flags.GetStringSlice("photo")
		entry.Photos = append(entry.Photos, photos...)
	}
	return validation.Photos(entry.Photos)
}

func newJournalAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add [date]",
		Aliases: []string{"edit", "write"},
		Short:   "Create or update a day's entry",
		Long: `Create or update the entry for a day (default: today).

Only the fields given as flags change; everything else keeps the value
already saved on the server. A new entry needs a mood.`,
		Example: `  tradejournal journal add --mood good --outcome "Two clean A+ setups" --check followed_plan
  tradejournal journal add 2026-02-05 --takeaway "Stop after two losses" --uncheck no_revenge_trades
  tradejournal journal add --photo https://example.com/chart.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			key := app.today()
			if len(args) == 1 {
				var err error
				if key, err = validation.DateKey("date", args[0]); err != nil {
					return err
				}
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			logger := logging.WithDate(logging.FromContext(ctx), string(key))

			existing, err := app.API.JournalForDate(ctx, key)
			if err != nil {
				return err
			}
			entry := models.JournalEntry{Date: key}
			if existing != nil {
				entry = *existing
			}
			if err := applyJournalFlags(cmd, &entry); err != nil {
				return err
			}
			if entry.Mood == models.MoodUnknown {
				return apperrors.NewValidationError("mood", "", "is required for a new entry")
			}

			saved, err := app.API.SaveJournal(ctx, entry)
			if err != nil {
				return err
			}
			app.persistSession(ctx)
			logging.LogJournalSaved(logger, saved.Mood.Value())

			if app.Store != nil {
				if err := app.Store.SaveJournalEntry(ctx, saved); err != nil {
					logger.Warn().Err(err).Msg("Saved on server but failed to update local cache")
				}
			}

			if output.IsJSON() {
				return output.JSON(saved)
			}
			verb := "Saved"
			if existing != nil {
				verb = "Updated"
			}
			output.Success("✓ %s entry for %s", verb, FormatDate(saved.Date, app.Config.UI.DateFormat))
			if app.Store != nil {
				output.Println()
				view, err := app.loadDay(ctx, saved.Date)
				if err != nil {
					return err
				}
				app.renderDay(output, view)
			}
			return nil
		},
	}

	cmd.Flags().String("mood", "", "confident, good, meh, bad or worst")
	cmd.Flags().String("outcome", "", "What happened")
	cmd.Flags().String("takeaway", "", "What to keep or change")
	cmd.Flags().StringSlice("check", nil, "Checklist items to tick (comma separated keys)")
	cmd.Flags().StringSlice("uncheck", nil, "Checklist items to clear")
	cmd.Flags().StringSlice("photo", nil, "Photo reference to attach (repeatable, max 3 per day)")
	cmd.Flags().Bool("clear-photos", false, "Remove existing photos before attaching")

	return cmd
}

func newJournalListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal days with their P&L",
		Example: `  tradejournal journal list --from 2026-02-01
  tradejournal journal list --mood bad
  tradejournal journal list --query revenge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			var filter store.JournalFilter
			if v, _ := cmd.Flags().GetString("from"); v != "" {
				key, err := validation.DateKey("from", v)
				if err != nil {
					return err
				}
				filter.StartDate = key
			}
			if v, _ := cmd.Flags().GetString("to"); v != "" {
				key, err := validation.DateKey("to", v)
				if err != nil {
					return err
				}
				filter.EndDate = key
			}
			if v, _ := cmd.Flags().GetString("mood"); v != "" {
				info, err := validation.Mood(v)
				if err != nil {
					return err
				}
				filter.Mood = info.Mood
			}
			filter.Query, _ = cmd.Flags().GetString("query")
			filter.Limit, _ = cmd.Flags().GetInt("limit")

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			entries, err := app.Store.GetJournal(ctx, filter)
			if err != nil {
				return err
			}
			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
			if err != nil {
				return err
			}

			// Filtering by mood or text only makes sense for days with an
			// entry; otherwise trade-only days are listed too.
			var views []analytics.DayView
			if filter.Mood != models.MoodUnknown || strings.TrimSpace(filter.Query) != "" {
				views = make([]analytics.DayView, 0, len(entries))
				for i := range entries {
					views = append(views, analytics.MergeDay(entries[i].Date, &entries[i], trades))
				}
			} else {
				views = analytics.MergeDays(entries, trades)
			}
			if filter.Limit > 0 && len(views) > filter.Limit {
				views = views[:filter.Limit]
			}

			if output.IsJSON() {
				return output.JSON(views)
			}
			if len(views) == 0 {
				output.Info("No journal days found")
				return nil
			}

			table := NewTable(output, "DATE", "MOOD", "CHECKS", "TRADES", "P&L", "OUTCOME")
			for _, v := range views {
				mood, checks, outcome := "-", "-", ""
				if v.Entry != nil {
					mood = FormatMood(v.Entry.Mood)
					checks = fmt.Sprintf("%d/%d", v.Entry.Checklist.Score(), len(models.ChecklistItems))
					outcome = TruncateString(v.Entry.Outcome, 40)
				}
				pnl := output.DimText("-")
				if v.Group.Count() > 0 {
					pnl = output.FormatPnL(v.Group.TotalPnL)
				}
				table.AddRow(
					FormatDate(v.Date, app.Config.UI.DateFormat),
					mood,
					checks,
					fmt.Sprintf("%d", len(v.Trades)),
					pnl,
					outcome,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().String("mood", "", "Only days with this mood")
	cmd.Flags().StringP("query", "q", "", "Search outcome and takeaway text")
	cmd.Flags().IntP("limit", "n", 30, "Maximum days (0 for all)")

	return cmd
}

func newJournalMoodsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "moods",
		Short: "List the moods an entry can have",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			moods := models.Moods()
			if output.IsJSON() {
				return output.JSON(moods)
			}
			table := NewTable(output, "", "VALUE", "LABEL", "PICTOGRAPH")
			for _, m := range moods {
				table.AddRow(m.Emoji, m.Value, m.Label, models.PictographURL(m.Hex))
			}
			table.Render()
			return nil
		},
	}
}
