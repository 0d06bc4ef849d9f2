package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented detail line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Pipeline Output
// =============================================================================

// statsLine summarises a load on one line, e.g.
// "3 files · 4 blocks · 2 volumes · cached".
func statsLine(s pipeline.Stats, info pipeline.CacheInfo) string {
	parts := []string{
		plural(s.Files, "file"),
		plural(s.Blocks, "block"),
		plural(s.Volumes, "volume"),
	}
	if s.Layers > 0 {
		parts = append(parts, plural(s.Layers, "layer"))
	}
	for i := range parts {
		parts[i] = StyleDim.Render(parts[i])
	}

	status, style := iconFresh, styleComputed
	if info.RecordHits > 0 && info.RecordMisses == 0 {
		status, style = iconCached, styleCached
	}
	parts = append(parts, style.Render(status))
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printFailures lists inputs skipped in non-strict mode.
func printFailures(res *pipeline.Result) {
	for _, f := range res.Failed {
		printWarning("skipped %s", f.Path)
		printDetail("%v", f.Err)
	}
}

// volumeRows returns one table row per block: volume, name, kind and length.
func volumeRows(ds *dataset.DataSet) [][]string {
	var rows [][]string
	for _, g := range ds.Nested() {
		key := g.Key
		if !g.Tagged {
			key = "—"
		}
		for _, b := range g.Blocks {
			rows = append(rows, []string{key, b.Identity().Name(), string(b.Kind()), fmt.Sprint(b.Len())})
		}
	}
	return rows
}

// renderBlockTable draws the blocks of ds as a bordered table.
func renderBlockTable(ds *dataset.DataSet) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Volume", "Block", "Kind", "Len").
		Rows(volumeRows(ds)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// writeBlockSummary writes one line per block in the compact form used by
// the browser's detail pane.
func writeBlockSummary(w io.Writer, blocks []block.Block) {
	for _, b := range blocks {
		fmt.Fprintf(w, "%s %s %s\n",
			StyleValue.Render(b.Identity().Name()),
			StyleDim.Render(string(b.Kind())),
			StyleDim.Render(plural(b.Len(), "row")))
	}
}
