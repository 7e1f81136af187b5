package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/loader"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/internal/validation"
)

// addDataCommands adds sync and trade listing commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSyncCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
}

// SyncResult reports what a sync stored.
type SyncResult struct {
	Trades   int           `json:"trades"`
	Journal  int           `json:"journal"`
	Duration time.Duration `json:"duration"`
}

// syncAll fetches trades and journal concurrently and replaces the cache with
// each as it arrives. Loads still in flight when ctx ends are discarded.
func (app *App) syncAll(ctx context.Context) (*SyncResult, error) {
	if err := app.requireStore(); err != nil {
		return nil, err
	}
	start := time.Now()
	result := &SyncResult{}

	tradesScope := loader.NewScope(string(store.SyncTypeTrades))
	journalScope := loader.NewScope(string(store.SyncTypeJournal))
	stop := context.AfterFunc(ctx, func() {
		tradesScope.Close()
		journalScope.Close()
	})
	defer stop()

	logger := logging.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loader.Run(gctx, tradesScope, app.API.Trades, func(trades []models.Trade) error {
			if err := app.Store.ReplaceTrades(ctx, trades); err != nil {
				return err
			}
			result.Trades = len(trades)
			logging.LogSync(logger, string(store.SyncTypeTrades), len(trades))
			return store.MarkSynced(app.Store, store.SyncTypeTrades, app.Now())
		})
	})
	g.Go(func() error {
		return loader.Run(gctx, journalScope, app.API.Journal, func(entries []models.JournalEntry) error {
			if err := app.Store.ReplaceJournal(ctx, entries); err != nil {
				return err
			}
			result.Journal = len(entries)
			logging.LogSync(logger, string(store.SyncTypeJournal), len(entries))
			return store.MarkSynced(app.Store, store.SyncTypeJournal, app.Now())
		})
	})

	err := g.Wait()
	app.persistSession(ctx)
	result.Duration = time.Since(start)
	return result, err
}

// ensureFresh syncs when nothing has ever been fetched and warns when the
// cache is older than the stale threshold. A failed first sync is returned;
// views have nothing to show without it.
func (app *App) ensureFresh(ctx context.Context, output *Output) error {
	if err := app.requireStore(); err != nil {
		return err
	}
	for _, f := range store.GetAllDataFreshness(app.Store, store.DefaultStaleAfter, app.Now()) {
		if f.LastUpdated.IsZero() {
			if !output.IsJSON() {
				output.Dim("No local data yet, syncing...")
			}
			_, err := app.syncAll(ctx)
			return err
		}
		if !f.IsFresh && !output.IsJSON() {
			output.Warning("%s: %s. Run `tradejournal sync` to refresh.", f.DataType, store.FormatFreshness(f))
		}
	}
	return nil
}

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch trades and journal entries from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := app.commandContext(cmd)
			defer cancel()

			result, err := app.syncAll(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ Synced %d trades and %d journal entries in %s",
				result.Trades, result.Journal, FormatDuration(result.Duration))
			return nil
		},
	}
}

// tradeRow is the CSV shape of a trade.
type tradeRow struct {
	Date       string  `csv:"date"`
	ID         string  `csv:"id"`
	Instrument string  `csv:"instrument"`
	Direction  string  `csv:"direction"`
	PnL        float64 `csv:"pnl"`
	Outcome    string  `csv:"outcome"`
	Session    string  `csv:"session"`
	Emotion    string  `csv:"emotion"`
	Notes      string  `csv:"notes"`
}

func toTradeRows(trades []models.Trade) []*tradeRow {
	rows := make([]*tradeRow, 0, len(trades))
	for _, t := range trades {
		key, _ := t.Key()
		rows = append(rows, &tradeRow{
			Date:       string(key),
			ID:         t.ID,
			Instrument: t.Instrument,
			Direction:  string(t.Direction),
			PnL:        t.PnL,
			Outcome:    analytics.Classify(t).String(),
			Session:    t.Session,
			Emotion:    t.Emotion,
			Notes:      t.Notes,
		})
	}
	return rows
}

// writeCSV marshals rows to path with gocsv.
func writeCSV(path string, rows interface{}) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// tradeFilterFromFlags reads --from, --to, --symbol and --limit.
func tradeFilterFromFlags(cmd *cobra.Command) (store.TradeFilter, error) {
	var filter store.TradeFilter
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		key, err := validation.DateKey("from", v)
		if err != nil {
			return filter, err
		}
		filter.StartDate = key
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		key, err := validation.DateKey("to", v)
		if err != nil {
			return filter, err
		}
		filter.EndDate = key
	}
	if filter.StartDate != "" && filter.EndDate != "" && filter.StartDate > filter.EndDate {
		return filter, apperrors.NewValidationError("from", filter.StartDate, "must not be after --to")
	}
	if v, _ := cmd.Flags().GetString("symbol"); v != "" {
		if err := validation.Symbol(v); err != nil {
			return filter, err
		}
		filter.Symbol = v
	}
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	return filter, nil
}

func addTradeFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringP("symbol", "s", "", "Only this instrument")
	cmd.Flags().IntP("limit", "n", 0, "Maximum trades (0 for all)")
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List cached trades",
		Example: `  tradejournal trades --from 2026-02-01 --to 2026-02-28
  tradejournal trades --symbol ES -n 20
  tradejournal trades export --csv feb.csv --from 2026-02-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			filter, err := tradeFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			trades, err := app.Store.GetTrades(ctx, filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades found")
				return nil
			}

			table := NewTable(output, "DATE", "INSTRUMENT", "SIDE", "P&L", "RESULT", "NOTES")
			for _, t := range trades {
				key, ok := t.Key()
				date := "-"
				if ok {
					date = FormatDate(key, app.Config.UI.DateFormat)
				}
				table.AddRow(
					date,
					orDash(t.Instrument),
					string(t.Direction),
					output.FormatPnL(analytics.EffectivePnL(t)),
					analytics.Classify(t).String(),
					TruncateString(t.Notes, 40),
				)
			}
			table.Render()

			summary := analytics.Summarize(trades)
			output.Println()
			output.Printf("%d trades  •  win rate %s  •  net %s\n",
				summary.TotalTrades, FormatWinRate(summary.WinRate), output.FormatPnL(summary.NetPnL))
			return nil
		},
	}
	addTradeFilterFlags(cmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached trades to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			path, _ := cmd.Flags().GetString("csv")
			if err := validation.Required("csv", path); err != nil {
				return err
			}
			filter, err := tradeFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := app.commandContext(cmd)
			defer cancel()
			if err := app.ensureFresh(ctx, output); err != nil {
				return err
			}

			trades, err := app.Store.GetTrades(ctx, filter)
			if err != nil {
				return err
			}
			rows := toTradeRows(trades)
			if err := writeCSV(path, &rows); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"path": path, "trades": len(rows)})
			}
			output.Success("✓ Wrote %d trades to %s", len(rows), path)
			return nil
		},
	}
	exportCmd.Flags().String("csv", "", "Destination CSV file")
	addTradeFilterFlags(exportCmd)

	cmd.AddCommand(exportCmd)
	return cmd
}
