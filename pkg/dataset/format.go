package dataset

import (
	"fmt"
	"strings"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// Mode selects a [DataSet.Format] layout.
type Mode string

const (
	ModeBase          Mode = "base"
	ModeFlat          Mode = "flat"
	ModeFlatCompact   Mode = "flat_compact"
	ModeNested        Mode = "nested"
	ModeNestedCompact Mode = "nested_compact"
	ModeFull          Mode = "full"
)

// Modes lists every layout in increasing verbosity.
var Modes = []Mode{ModeBase, ModeFlatCompact, ModeFlat, ModeNestedCompact, ModeNested, ModeFull}

// ElisionMarker replaces the middle of a compacted list.
const ElisionMarker = "[...]"

// compactKeep is the number of entries kept at each end of a compacted list.
const compactKeep = 3

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown print mode %q", s)
}

// String returns the flat compact layout.
func (d *DataSet) String() string {
	out, _ := d.Format(ModeFlatCompact)
	return out
}

// Format renders d in the given layout.
func (d *DataSet) Format(mode Mode) (string, error) {
	var sb strings.Builder
	sb.WriteString(d.header())
	switch mode {
	case ModeBase:
		return sb.String(), nil
	case ModeFlat, ModeFlatCompact:
		lines := make([]string, len(d.blocks))
		for i, b := range d.blocks {
			lines[i] = describeBlock(b, true)
		}
		writeList(&sb, "  ", lines, mode == ModeFlatCompact)
	case ModeNested, ModeNestedCompact, ModeFull:
		groups := d.Nested()
		entries := make([]string, len(groups))
		for i, g := range groups {
			entries[i] = formatGroup(g, mode)
		}
		writeList(&sb, "  ", entries, mode == ModeNestedCompact)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown print mode %q", mode)
	}
	return sb.String(), nil
}

func (d *DataSet) header() string {
	kind := "DataSet"
	if d.view {
		kind = "DataSet view"
	}
	return fmt.Sprintf("%s(%d blocks, %d volumes)", kind, len(d.blocks), len(d.Volumes()))
}

// Elide returns the entries to display for a compact list: all of them when
// there are at most six, otherwise the first three, [ElisionMarker] and the
// last three.
func Elide(entries []string) []string {
	if len(entries) <= 2*compactKeep {
		return entries
	}
	out := make([]string, 0, 2*compactKeep+1)
	out = append(out, entries[:compactKeep]...)
	out = append(out, ElisionMarker)
	return append(out, entries[len(entries)-compactKeep:]...)
}

func writeList(sb *strings.Builder, indent string, entries []string, compact bool) {
	if compact {
		entries = Elide(entries)
	}
	for _, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(indent)
		sb.WriteString(strings.ReplaceAll(e, "\n", "\n"+indent))
	}
}

func formatGroup(g Group, mode Mode) string {
	var sb strings.Builder
	switch {
	case g.Omni():
		sb.WriteString(g.Key + " (all volumes):")
	case !g.Tagged:
		sb.WriteString("(untagged):")
	default:
		sb.WriteString(g.Key + ":")
	}
	lines := make([]string, len(g.Blocks))
	for i, b := range g.Blocks {
		lines[i] = describeBlock(b, false)
		if mode == ModeFull {
			lines[i] += "\n" + detailBlock(b)
		}
	}
	writeList(&sb, "  ", lines, mode == ModeNestedCompact)
	return sb.String()
}

func describeBlock(b block.Block, withVolume bool) string {
	id := b.Identity()
	name := id.Name()
	if name == "" {
		name = "<unnamed>"
	}
	s := fmt.Sprintf("%s (%s, %d)", name, b.Kind(), b.Len())
	if b.IsView() {
		s += " view"
	}
	if withVolume && id.Volume() != "" {
		s += " @ " + id.Volume()
	}
	return s
}

func detailBlock(b block.Block) string {
	id := b.Identity()
	sp := id.Spatial()
	ps := sp.PixelSize()
	lines := []string{
		fmt.Sprintf("  pixel size: %g %g %g", ps[0], ps[1], ps[2]),
		fmt.Sprintf("  dims order: %s", sp.DimsOrder()),
		fmt.Sprintf("  id: %s", id.ID()),
	}
	if id.Source() != "" {
		lines = append(lines, "  source: "+id.Source())
	}
	return strings.Join(lines, "\n")
}
