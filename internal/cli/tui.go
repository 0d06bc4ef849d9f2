package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// =============================================================================
// VolumeBrowserModel - Interactive volume selection
// =============================================================================

// VolumeBrowserModel is the bubbletea model for paging through the volumes of
// a data set. Omni blocks are listed under every volume.
type VolumeBrowserModel struct {
	Groups   []dataset.Group
	Omni     int
	Cursor   int
	Offset   int
	Height   int
	Selected string
}

// NewVolumeBrowserModel creates a browser over the groups of ds.
func NewVolumeBrowserModel(ds *dataset.DataSet) VolumeBrowserModel {
	var groups []dataset.Group
	for _, g := range ds.Nested() {
		if !g.Omni() {
			groups = append(groups, g)
		}
	}
	return VolumeBrowserModel{Groups: groups, Omni: len(ds.Omni()), Height: 15}
}

func (m VolumeBrowserModel) Init() tea.Cmd {
	return nil
}

func (m VolumeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Groups)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Groups) == 0 || !m.Groups[m.Cursor].Tagged {
				return m, nil
			}
			m.Selected = m.Groups[m.Cursor].Key
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m VolumeBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Volumes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ depict  q quit"))
	b.WriteString("\n\n")

	if len(m.Groups) == 0 {
		b.WriteString(listDimStyle.Render("  no blocks"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Groups))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		g := m.Groups[i]
		label := g.Key
		if !g.Tagged {
			label = "(untagged) " + g.Blocks[0].Identity().Name()
		}
		line := fmt.Sprintf("%-24s %s", label, listDimStyle.Render(plural(len(g.Blocks), "block")))
		switch {
		case i == m.Cursor:
			list.WriteString(listSelectedStyle.Render("▸ " + line))
		case g.Tagged:
			list.WriteString(listNormalStyle.Render("  " + line))
		default:
			list.WriteString(listDimStyle.Render("  " + line))
		}
		list.WriteString("\n")
	}

	var detail strings.Builder
	writeBlockSummary(&detail, m.Groups[m.Cursor].Blocks)
	if m.Omni > 0 {
		detail.WriteString(listDimStyle.Render(fmt.Sprintf("+ %s shown in every volume", plural(m.Omni, "omni block"))))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", detailStyle.Render(strings.TrimRight(detail.String(), "\n"))))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Groups))))

	return b.String()
}

// =============================================================================
// browse command
// =============================================================================

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "browse <file>...",
		Short: "Browse the volumes of a data set interactively",
		Long: `Read the files and page through their volumes. Pressing enter depicts
the selected volume and lists its visible layers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), c.options(cmd, args, &flags))
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Loading...")
	spinner.Start()
	res, err := runner.Load(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	printFailures(res)

	final, err := tea.NewProgram(NewVolumeBrowserModel(res.DataSet), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	selected := final.(VolumeBrowserModel).Selected
	if selected == "" {
		return nil
	}

	opts.Show = selected
	scene, err := runner.Depict(ctx, res.DataSet, opts)
	if err != nil {
		return err
	}
	printSuccess("Volume %s", selected)
	for _, l := range scene.Visible() {
		printDetail("%-8s %s (%d)", l.Kind, l.Name, l.Len())
	}
	return nil
}
