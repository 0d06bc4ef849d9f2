package dataset

import (
	"sort"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// DataSet is an ordered, deduplicated collection of top-level blocks.
type DataSet struct {
	blocks []block.Block
	view   bool
}

// New returns an owner holding blocks.
func New(blocks ...block.Block) (*DataSet, error) {
	d := &DataSet{}
	if err := d.Extend(blocks...); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the number of blocks.
func (d *DataSet) Len() int { return len(d.blocks) }

// IsView reports whether d was produced by a selection.
func (d *DataSet) IsView() bool { return d.view }

// At returns the block at position i.
func (d *DataSet) At(i int) block.Block { return d.blocks[i] }

// Blocks returns the members in order. The slice is a copy; the blocks are not.
func (d *DataSet) Blocks() []block.Block { return append([]block.Block(nil), d.blocks...) }

// Append adds b unless an equal block is already present.
func (d *DataSet) Append(b block.Block) error {
	return d.Extend(b)
}

// Extend adds every block, validating all of them before adding any.
func (d *DataSet) Extend(blocks ...block.Block) error {
	if d.view {
		return &errors.ImmutableViewError{Op: "extend dataset view"}
	}
	for i, b := range blocks {
		if err := validate(b); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "block %d", i)
		}
	}
	changed := false
	for _, b := range blocks {
		if d.contains(b) {
			continue
		}
		d.blocks = append(d.blocks, b)
		changed = true
	}
	if changed {
		sort.SliceStable(d.blocks, func(i, j int) bool {
			return d.blocks[i].Identity().Name() < d.blocks[j].Identity().Name()
		})
	}
	return nil
}

func validate(b block.Block) error {
	if b == nil || b.Identity() == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil block")
	}
	if !b.Kind().Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unrecognised block kind %q", b.Kind())
	}
	return nil
}

// contains reports whether a block equal to b is a member: the same value, or
// the same kind, name and source path.
func (d *DataSet) contains(b block.Block) bool {
	for _, m := range d.blocks {
		if m == b || sameKey(m, b) {
			return true
		}
	}
	return false
}

func sameKey(a, b block.Block) bool {
	ia, ib := a.Identity(), b.Identity()
	return a.Kind() == b.Kind() && ia.Name() == ib.Name() && ia.Source() == ib.Source()
}

// Index returns the position of b, or -1.
func (d *DataSet) Index(b block.Block) int {
	for i, m := range d.blocks {
		if m == b {
			return i
		}
	}
	return -1
}

// Remove drops b from the dataset.
func (d *DataSet) Remove(b block.Block) error {
	if d.view {
		return &errors.ImmutableViewError{Op: "remove from dataset view"}
	}
	i := d.Index(b)
	if i < 0 {
		return errors.NotFound("block " + b.Identity().Name())
	}
	d.blocks = append(d.blocks[:i:i], d.blocks[i+1:]...)
	return nil
}

// View returns a view of every member.
func (d *DataSet) View() *DataSet {
	return &DataSet{blocks: d.Blocks(), view: true}
}

// Copy returns a new owner holding the same block values.
func (d *DataSet) Copy() *DataSet {
	return &DataSet{blocks: d.Blocks()}
}

// AddToSameVolume tags every block with the volume of ref and appends them to
// d. An untagged ref is first tagged with its name, or its UUID when unnamed,
// so that the blocks are grouped with it.
func (d *DataSet) AddToSameVolume(ref block.Block, blocks ...block.Block) error {
	if d.view {
		return &errors.ImmutableViewError{Op: "add to dataset view"}
	}
	if d.Index(ref) < 0 {
		return errors.NotFound("block " + ref.Identity().Name())
	}
	for _, b := range blocks {
		if err := validate(b); err != nil {
			return err
		}
	}
	vol := ref.Identity().Volume()
	if vol == "" {
		vol = ref.Identity().Name()
		if vol == "" {
			vol = ref.Identity().ID().String()
		}
		if err := ref.Identity().SetVolume(vol); err != nil {
			return err
		}
	}
	for _, b := range blocks {
		if err := b.Identity().SetVolume(vol); err != nil {
			return err
		}
	}
	return d.Extend(blocks...)
}
