package depict

import (
	"sync"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// LayerID identifies a layer inside a viewer.
type LayerID int

// Viewer displays layers. Rendering failures are the viewer's own concern;
// errors returned here are for unknown IDs and invalid descriptors.
type Viewer interface {
	Add(l Layer) (LayerID, error)
	Refresh(id LayerID, l Layer) error
	Remove(id LayerID) error
}

// EditSource is implemented by viewers that report user edits. The handler is
// called with the new layer data.
type EditSource interface {
	OnEdit(id LayerID, fn func(data any) error)
}

// Scene is an in-memory Viewer holding an ordered list of layers and the
// volume currently shown. It is safe for concurrent use.
type Scene struct {
	mu       sync.RWMutex
	next     LayerID
	order    []LayerID
	layers   map[LayerID]Layer
	handlers map[LayerID]func(any) error
	volume   string
}

// NewScene returns an empty scene that shows every volume.
func NewScene() *Scene {
	return &Scene{
		layers:   make(map[LayerID]Layer),
		handlers: make(map[LayerID]func(any) error),
	}
}

// Add appends a layer and returns its ID.
func (s *Scene) Add(l Layer) (LayerID, error) {
	if l.Kind == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "layer %q has no kind", l.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.order = append(s.order, id)
	s.layers[id] = s.withVisibility(l)
	return id, nil
}

// Refresh replaces the descriptor of an existing layer.
func (s *Scene) Refresh(id LayerID, l Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[id]; !ok {
		return errors.NotFound("layer")
	}
	s.layers[id] = s.withVisibility(l)
	return nil
}

// Remove deletes a layer and its edit handler.
func (s *Scene) Remove(id LayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[id]; !ok {
		return errors.NotFound("layer")
	}
	delete(s.layers, id)
	delete(s.handlers, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// OnEdit registers the handler called by [Scene.Edit] for id.
func (s *Scene) OnEdit(id LayerID, fn func(data any) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[id] = fn
}

// Edit simulates a user changing the data of a layer in the viewer.
func (s *Scene) Edit(id LayerID, data any) error {
	s.mu.RLock()
	fn, ok := s.handlers[id]
	s.mu.RUnlock()
	if !ok {
		return errors.NotFound("edit handler")
	}
	return fn(data)
}

// Layer returns the descriptor of id.
func (s *Scene) Layer(id LayerID) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[id]
	return l, ok
}

// Layers returns every layer in insertion order.
func (s *Scene) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.layers[id])
	}
	return out
}

// Visible returns the layers of the shown volume in insertion order.
func (s *Scene) Visible() []Layer {
	var out []Layer
	for _, l := range s.Layers() {
		if l.Attrs.Visible {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of layers.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ShowVolume makes the layers of volume and of the omni volume visible and
// hides the rest. An empty volume shows everything.
func (s *Scene) ShowVolume(volume string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	for id, l := range s.layers {
		s.layers[id] = s.withVisibility(l)
	}
}

// Volume returns the volume set by ShowVolume.
func (s *Scene) Volume() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

func (s *Scene) withVisibility(l Layer) Layer {
	l.Attrs.Visible = s.volume == "" || l.Volume == s.volume || l.Volume == block.OmniVolume
	return l
}
