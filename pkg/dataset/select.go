package dataset

import (
	"fmt"
	"strings"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// Selector picks members of a DataSet.
type Selector interface {
	pick(d *DataSet) ([]int, error)
	fmt.Stringer
}

// Index selects one member by position. Negative values count from the end.
type Index int

// Range selects members [Start, Stop) with the clamping rules of [block.Range].
type Range struct{ Start, Stop int }

// Mask selects members whose entry is true.
type Mask []bool

// Volume selects every member tagged with the volume. The empty string selects
// untagged members.
type Volume string

// Name selects every member with the name.
type Name string

func (i Index) pick(d *DataSet) ([]int, error) { return block.Resolve(block.Index(i), d.Len()) }
func (r Range) pick(d *DataSet) ([]int, error) {
	return block.Resolve(block.Range{Start: r.Start, Stop: r.Stop}, d.Len())
}
func (m Mask) pick(d *DataSet) ([]int, error) { return block.Resolve(block.Mask(m), d.Len()) }

func (v Volume) pick(d *DataSet) ([]int, error) {
	return d.where(func(b block.Block) bool { return b.Identity().Volume() == string(v) }), nil
}

func (n Name) pick(d *DataSet) ([]int, error) {
	return d.where(func(b block.Block) bool { return b.Identity().Name() == string(n) }), nil
}

func (i Index) String() string  { return fmt.Sprintf("index %d", int(i)) }
func (r Range) String() string  { return fmt.Sprintf("range %d:%d", r.Start, r.Stop) }
func (m Mask) String() string   { return fmt.Sprintf("mask of %d", len(m)) }
func (v Volume) String() string { return fmt.Sprintf("volume %q", string(v)) }
func (n Name) String() string   { return fmt.Sprintf("name %q", string(n)) }

func (d *DataSet) where(keep func(block.Block) bool) []int {
	var out []int
	for i, b := range d.blocks {
		if keep(b) {
			out = append(out, i)
		}
	}
	return out
}

// Get returns a view of the union of the members matched by each selector, in
// selector order without repeats. With no selectors it returns a view of all
// members.
func (d *DataSet) Get(sels ...Selector) (*DataSet, error) {
	if len(sels) == 0 {
		return d.View(), nil
	}
	seen := make(map[int]bool)
	var idx []int
	for _, s := range sels {
		picked, err := s.pick(d)
		if err != nil {
			return nil, err
		}
		for _, i := range picked {
			if !seen[i] {
				seen[i] = true
				idx = append(idx, i)
			}
		}
	}
	if len(idx) == 0 {
		return nil, errors.NotFound(describe(sels)...)
	}
	out := &DataSet{blocks: make([]block.Block, len(idx)), view: true}
	for k, i := range idx {
		out.blocks[k] = d.blocks[i]
	}
	return out, nil
}

func describe(sels []Selector) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = s.String()
	}
	return out
}

// Query filters members in [DataSet.Find]. Empty fields are ignored.
type Query struct {
	Name   string
	Volume string
	Kind   block.Kind
}

func (q Query) String() string {
	var parts []string
	if q.Name != "" {
		parts = append(parts, "name="+q.Name)
	}
	if q.Volume != "" {
		parts = append(parts, "volume="+q.Volume)
	}
	if q.Kind != "" {
		parts = append(parts, "kind="+string(q.Kind))
	}
	return strings.Join(parts, " ")
}

// Find returns a view of the members matching every non-empty field of q. At
// least one field must be set.
func (d *DataSet) Find(q Query) (*DataSet, error) {
	if q == (Query{}) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "find needs at least one of name, volume or kind")
	}
	idx := d.where(func(b block.Block) bool {
		id := b.Identity()
		return (q.Name == "" || id.Name() == q.Name) &&
			(q.Volume == "" || id.Volume() == q.Volume) &&
			(q.Kind == "" || b.Kind() == q.Kind)
	})
	if len(idx) == 0 {
		return nil, errors.NotFound(q.String())
	}
	out := &DataSet{view: true}
	for _, i := range idx {
		out.blocks = append(out.blocks, d.blocks[i])
	}
	return out, nil
}
