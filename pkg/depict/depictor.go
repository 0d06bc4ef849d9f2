package depict

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// State is the lifecycle position of a Depictor.
type State int

const (
	// StateUnrendered: no layers exist in the viewer yet.
	StateUnrendered State = iota
	// StateRendered: the viewer holds one layer per adapter output.
	StateRendered
	// StatePurged: layers were removed; Depict renders again.
	StatePurged
)

func (s State) String() string {
	switch s {
	case StateUnrendered:
		return "unrendered"
	case StateRendered:
		return "rendered"
	case StatePurged:
		return "purged"
	}
	return "unknown"
}

// Depictor keeps the layers of one block in sync with a viewer.
type Depictor struct {
	block   block.Block
	adapter Adapter
	viewer  Viewer
	logger  *log.Logger

	state    State
	ids      []LayerID
	cancel   func()
	applying bool
}

// NewDepictor returns an unrendered depictor. A nil logger discards output.
func NewDepictor(b block.Block, a Adapter, v Viewer, logger *log.Logger) *Depictor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Depictor{block: b, adapter: a, viewer: v, logger: logger}
}

// Block returns the depicted block.
func (d *Depictor) Block() block.Block { return d.block }

// State returns the lifecycle state.
func (d *Depictor) State() State { return d.state }

// LayerIDs returns the viewer IDs of the live layers.
func (d *Depictor) LayerIDs() []LayerID { return append([]LayerID(nil), d.ids...) }

// Depict renders the block. On a rendered depictor it updates the existing
// layers instead of adding new ones.
func (d *Depictor) Depict() error {
	if d.state == StateRendered {
		return d.Update()
	}
	layers, err := d.adapter.Layers(d.block)
	if err != nil {
		return err
	}
	if err := d.add(layers); err != nil {
		return err
	}
	d.cancel = d.block.Identity().Subscribe(d.onBlockUpdate)
	d.state = StateRendered
	d.logger.Debug("depicted", "block", d.block.Identity().Name(), "kind", d.block.Kind(), "layers", len(layers))
	return nil
}

func (d *Depictor) add(layers []Layer) error {
	for i, l := range layers {
		id, err := d.viewer.Add(l)
		if err != nil {
			return err
		}
		d.ids = append(d.ids, id)
		if src, ok := d.viewer.(EditSource); ok {
			idx := i
			src.OnEdit(id, func(data any) error {
				return d.Changed(Edit{Layer: idx, Data: data})
			})
		}
	}
	return nil
}

func (d *Depictor) onBlockUpdate() {
	if d.applying {
		return
	}
	if err := d.Update(); err != nil {
		d.logger.Warn("refresh failed", "block", d.block.Identity().Name(), "err", err)
	}
}

// Update pushes the block's current state to the viewer. If the number of
// layers changed, the old layers are replaced.
func (d *Depictor) Update() error {
	if d.state != StateRendered {
		return errors.New(errors.ErrCodeInvalidInput, "cannot update a %s depiction", d.state)
	}
	layers, err := d.adapter.Layers(d.block)
	if err != nil {
		return err
	}
	if len(layers) != len(d.ids) {
		if err := d.removeLayers(); err != nil {
			return err
		}
		return d.add(layers)
	}
	for i, l := range layers {
		if err := d.viewer.Refresh(d.ids[i], l); err != nil {
			return err
		}
	}
	return nil
}

// Changed writes a viewer edit back into the block and then refreshes every
// layer from the block.
func (d *Depictor) Changed(e Edit) error {
	if d.state != StateRendered {
		return errors.New(errors.ErrCodeInvalidInput, "cannot apply an edit to a %s depiction", d.state)
	}
	d.applying = true
	err := d.adapter.Apply(d.block, e)
	d.applying = false
	if err != nil {
		return err
	}
	return d.Update()
}

// Purge removes the layers from the viewer and stops following the block.
func (d *Depictor) Purge() error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	err := d.removeLayers()
	d.state = StatePurged
	return err
}

func (d *Depictor) removeLayers() error {
	var first error
	for _, id := range d.ids {
		if err := d.viewer.Remove(id); err != nil && first == nil {
			first = err
		}
	}
	d.ids = nil
	return first
}
