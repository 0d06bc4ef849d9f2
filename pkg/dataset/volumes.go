package dataset

import (
	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// untaggedPrefix starts the synthetic key of an untagged block's group.
const untaggedPrefix = "untagged:"

// Group is the set of members sharing one volume key.
type Group struct {
	// Key is the volume tag, or a synthetic key for an untagged block.
	Key string
	// Tagged is false for the group of an untagged block.
	Tagged bool
	Blocks []block.Block
}

// Omni reports whether the group is shown in every volume.
func (g Group) Omni() bool { return g.Key == block.OmniVolume }

func groupKey(b block.Block) (string, bool) {
	id := b.Identity()
	if v := id.Volume(); v != "" {
		return v, true
	}
	return untaggedPrefix + id.ID().String(), false
}

// Nested partitions the members by volume, in order of first appearance.
func (d *DataSet) Nested() []Group {
	var groups []Group
	pos := make(map[string]int)
	for _, b := range d.blocks {
		key, tagged := groupKey(b)
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, Group{Key: key, Tagged: tagged})
		}
		groups[i].Blocks = append(groups[i].Blocks, b)
	}
	return groups
}

// Volumes returns the visible volume keys, omitting the omni volume.
func (d *DataSet) Volumes() []string {
	var out []string
	for _, g := range d.Nested() {
		if !g.Omni() {
			out = append(out, g.Key)
		}
	}
	return out
}

// Omni returns the members tagged with the omni volume.
func (d *DataSet) Omni() []block.Block {
	for _, g := range d.Nested() {
		if g.Omni() {
			return g.Blocks
		}
	}
	return nil
}

// Members returns the blocks of the volume with key, without omni blocks.
func (d *DataSet) Members(key string) ([]block.Block, error) {
	for _, g := range d.Nested() {
		if g.Key == key && !g.Omni() {
			return g.Blocks, nil
		}
	}
	return nil, errors.NotFound("volume " + key)
}

// Show returns every block rendered for the volume with key: its members
// followed by the omni blocks.
func (d *DataSet) Show(key string) ([]block.Block, error) {
	members, err := d.Members(key)
	if err != nil {
		return nil, err
	}
	return append(append([]block.Block(nil), members...), d.Omni()...), nil
}
