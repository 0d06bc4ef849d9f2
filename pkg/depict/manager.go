package depict

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// Manager keeps at most one live Depictor per block.
type Manager struct {
	viewer    Viewer
	registry  *Registry
	logger    *log.Logger
	depictors map[block.Block]*Depictor
	order     []block.Block
}

// NewManager returns a manager drawing into v with adapters from r. A nil
// registry uses [DefaultRegistry]; a nil logger discards output.
func NewManager(v Viewer, r *Registry, logger *log.Logger) *Manager {
	if r == nil {
		r = DefaultRegistry()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Manager{viewer: v, registry: r, logger: logger, depictors: make(map[block.Block]*Depictor)}
}

// Depict renders b. Without newDepictor an existing depiction is updated in
// place; with it the existing depiction is purged and replaced.
func (m *Manager) Depict(b block.Block, newDepictor bool) (*Depictor, error) {
	if existing, ok := m.depictors[b]; ok {
		if !newDepictor {
			return existing, existing.Depict()
		}
		if err := m.Purge(b); err != nil {
			return nil, err
		}
	}
	a, err := m.registry.Lookup(b.Kind())
	if err != nil {
		return nil, err
	}
	d := NewDepictor(b, a, m.viewer, m.logger)
	if err := d.Depict(); err != nil {
		_ = d.Purge()
		return nil, err
	}
	m.depictors[b] = d
	m.order = append(m.order, b)
	return d, nil
}

// DepictAll renders every block, stopping at the first error.
func (m *Manager) DepictAll(blocks []block.Block, newDepictor bool) error {
	for _, b := range blocks {
		if _, err := m.Depict(b, newDepictor); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "depict %s", b.Identity().Name())
		}
	}
	return nil
}

// Depictor returns the live depictor of b.
func (m *Manager) Depictor(b block.Block) (*Depictor, bool) {
	d, ok := m.depictors[b]
	return d, ok
}

// Len returns the number of live depictors.
func (m *Manager) Len() int { return len(m.depictors) }

// Purge removes the depiction of b.
func (m *Manager) Purge(b block.Block) error {
	d, ok := m.depictors[b]
	if !ok {
		return errors.NotFound("depiction of " + b.Identity().Name())
	}
	delete(m.depictors, b)
	for i, o := range m.order {
		if o == b {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	return d.Purge()
}

// PurgeAll removes every depiction.
func (m *Manager) PurgeAll() error {
	var first error
	for _, b := range append([]block.Block(nil), m.order...) {
		if err := m.Purge(b); err != nil && first == nil {
			first = err
		}
	}
	return first
}
