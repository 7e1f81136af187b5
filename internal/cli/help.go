package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCommandsCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

type commandHelp struct {
	cmd  string
	desc string
}

var commandCategories = []struct {
	name     string
	commands []commandHelp
}{
	{
		name: "Account",
		commands: []commandHelp{
			{"register", "Create an account"},
			{"login / logout", "Start or end a session"},
			{"me", "Signed-in account and cache freshness"},
			{"password", "Change password"},
			{"settings", "Theme, currency and timezone on the server"},
			{"account export / delete", "Download or remove your data"},
		},
	},
	{
		name: "Data",
		commands: []commandHelp{
			{"sync", "Fetch trades and journal"},
			{"trades", "List cached trades"},
			{"trades export --csv FILE", "Write trades to CSV"},
		},
	},
	{
		name: "Views",
		commands: []commandHelp{
			{"calendar [--month YYYY-MM]", "Month grid of daily P&L"},
			{"heatmap [--weeks N]", "Recent weeks coloured by P&L"},
			{"report [--by ...]", "Summary, breakdowns and equity curve"},
		},
	},
	{
		name: "Journal",
		commands: []commandHelp{
			{"journal today", "Today's entry and trades"},
			{"journal show DATE", "One day's entry and trades"},
			{"journal add [DATE]", "Create or update an entry"},
			{"journal list", "Days with mood and P&L"},
			{"journal moods", "Available moods"},
		},
	},
	{
		name: "Utilities",
		commands: []commandHelp{
			{"theme [light|dark|system]", "Local colour theme"},
			{"config show/path/validate", "Configuration"},
			{"commands / examples / quickstart", "This help"},
			{"version", "Version information"},
		},
	},
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			output.Bold("tradejournal commands")
			output.Println()

			for _, cat := range commandCategories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %s %s\n", PadRight(output.Cyan(c.cmd), 34), c.desc)
				}
				output.Println()
			}

			output.Dim("Use 'tradejournal help <command>' for detailed help on any command")
			return nil
		},
	}
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "End of Day",
					commands: []string{
						"tradejournal sync",
						"tradejournal journal today",
						"tradejournal journal add --mood good --check followed_plan,respected_stops",
						"tradejournal journal add --outcome \"Faded the open twice\" --takeaway \"Wait for the first pullback\"",
					},
				},
				{
					title: "Weekly Review",
					commands: []string{
						"tradejournal heatmap --weeks 4 --details",
						"tradejournal report --period week --by weekday",
						"tradejournal journal list --from 2026-02-02  # entries next to P&L",
					},
				},
				{
					title: "Patterns",
					commands: []string{
						"tradejournal report --period all --by mood  # does mood track results?",
						"tradejournal report --by symbol",
						"tradejournal journal list --query revenge",
					},
				},
				{
					title: "Export",
					commands: []string{
						"tradejournal trades export --csv trades.csv",
						"tradejournal report --period year --curve --csv equity.csv",
						"tradejournal account export -o my-data.json",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}
			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			output.Bold("tradejournal - Quick Start")
			output.Println()

			steps := []struct {
				title string
				desc  string
				cmd   string
			}{
				{"Point at your server", "Set api.base_url in config.toml.", "tradejournal config path"},
				{"Create an account", "Verify your email from the link you receive.", "tradejournal register"},
				{"Sign in", "The session is kept until you log out.", "tradejournal login"},
				{"Fetch your data", "Trades and journal are cached locally.", "tradejournal sync"},
				{"Look at the month", "Each day shows its net P&L.", "tradejournal calendar"},
				{"Write today's entry", "Mood, checklist, outcome and takeaway.", "tradejournal journal add --mood good"},
			}

			for i, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), i+1, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Files")
			output.Printf("  %s - server, timezone, display and logging\n", output.Cyan("config.toml"))
			output.Printf("  %s - local cache of trades, journal and session\n", output.Cyan("journal.db"))
			output.Printf("  %s - rotating debug log\n", output.Cyan("logs/tradejournal.log"))
			return nil
		},
	}
}
