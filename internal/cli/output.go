// Package cli provides the command-line interface for the trading journal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/models"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
	theme        string
	currency     string
}

// NewOutput creates a new Output instance. Colour follows the terminal
// detection done by the color package, which also honours NO_COLOR.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
		currency:     "$",
	}
}

// WithColor turns colour off when enabled is false. It never forces colour
// on for a non-terminal writer.
func (o *Output) WithColor(enabled bool) *Output {
	o.colorEnabled = o.colorEnabled && enabled
	return o
}

// WithTheme selects the palette for neutral and dim text.
func (o *Output) WithTheme(theme string) *Output {
	o.theme = theme
	return o
}

// WithCurrency sets the symbol used by FormatPnL.
func (o *Output) WithCurrency(symbol string) *Output {
	o.currency = symbol
	return o
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(o.paint(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(o.paint(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(o.paint(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(o.paint(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(o.paint(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(o.dim(), format, args...)
}

func (o *Output) colored(c *color.Color, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, c.Sprintf(format, args...))
}

// paint returns a color.Color that obeys this output's colour switch rather
// than the package-wide one.
func (o *Output) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if o.colorEnabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (o *Output) dim() *color.Color {
	if o.theme == models.ThemeLight {
		return o.paint(color.FgHiBlack)
	}
	return o.paint(color.Faint)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.FgGreen).Sprint(text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(color.FgYellow).Sprint(text)
}

// Cyan returns cyan colored text.
func (o *Output) Cyan(text string) string {
	return o.paint(color.FgCyan).Sprint(text)
}

// BoldText returns bold text.
func (o *Output) BoldText(text string) string {
	return o.paint(color.Bold).Sprint(text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.dim().Sprint(text)
}

func (o *Output) pnlColor(pnl float64) *color.Color {
	switch {
	case pnl > 0:
		return o.paint(color.FgGreen)
	case pnl < 0:
		return o.paint(color.FgRed)
	case o.theme == models.ThemeLight:
		return o.paint(color.FgBlack)
	default:
		return o.paint(color.FgWhite)
	}
}

// FormatPnL formats P&L with sign and color.
func (o *Output) FormatPnL(pnl float64) string {
	return o.pnlColor(pnl).Sprint(FormatPnL(pnl, o.currency))
}

// bandColors are the heatmap cell backgrounds.
var bandColors = map[analytics.Band][]color.Attribute{
	analytics.BandNeutral:      {color.BgWhite, color.FgBlack},
	analytics.BandLightProfit:  {color.BgHiGreen, color.FgBlack},
	analytics.BandMediumProfit: {color.BgGreen, color.FgBlack},
	analytics.BandStrongProfit: {color.BgGreen, color.FgHiWhite, color.Bold},
	analytics.BandLoss:         {color.BgHiRed, color.FgBlack},
	analytics.BandStrongLoss:   {color.BgRed, color.FgHiWhite, color.Bold},
}

// Band paints text with the background of a heatmap band. Disabled cells
// are returned unstyled.
func (o *Output) Band(b analytics.Band, text string) string {
	attrs, ok := bandColors[b]
	if !ok {
		return o.DimText(text)
	}
	return o.paint(attrs...).Sprint(text)
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := displayWidth(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padded := cell + strings.Repeat(" ", max(widths[i]-displayWidth(cell), 0))
			if isHeader {
				padded = t.output.BoldText(padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.DimText(strings.Join(parts, "──")))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// displayWidth is the terminal column width of s, ignoring colour codes.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	width := displayWidth(title)
	for _, line := range content {
		if w := displayWidth(line); w > width {
			width = w
		}
	}
	border := strings.Repeat("─", width+2)

	o.Println(o.DimText("┌" + border + "┐"))
	o.Printf("%s %s%s %s\n", o.DimText("│"), o.BoldText(title), strings.Repeat(" ", width-displayWidth(title)), o.DimText("│"))
	o.Println(o.DimText("├" + border + "┤"))
	for _, line := range content {
		o.Printf("%s %s%s %s\n", o.DimText("│"), line, strings.Repeat(" ", width-displayWidth(line)), o.DimText("│"))
	}
	o.Println(o.DimText("└" + border + "┘"))
}
