package block

import (
	"github.com/google/uuid"

	"github.com/matzehuels/blik/pkg/errors"
)

// OmniVolume marks blocks that are visible regardless of the selected volume.
const OmniVolume = "BLIK_OMNI"

// Identity is the shared record of a composite chain. All sub-blocks and views
// of one owner point at the same Identity.
//
// The zero value is not usable; use [NewIdentity].
type Identity struct {
	id      uuid.UUID
	name    string
	volume  string // "" means untagged
	source  string
	spatial *Spatial

	observers []observer
	nextObs   int
	batching  int
	pending   bool
}

type observer struct {
	id int
	fn func()
}

// NewIdentity creates an identity with a fresh UUID and default spatial attributes.
func NewIdentity(name string) *Identity {
	return &Identity{
		id:      uuid.New(),
		name:    name,
		spatial: DefaultSpatial(),
	}
}

// ID returns the unique identifier of the record.
func (id *Identity) ID() uuid.UUID { return id.id }

// Name returns the display name.
func (id *Identity) Name() string { return id.name }

// SetName renames every block sharing this identity.
func (id *Identity) SetName(name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	id.name = name
	return nil
}

// Volume returns the volume tag, or "" when untagged.
func (id *Identity) Volume() string { return id.volume }

// SetVolume retags every block sharing this identity.
func (id *Identity) SetVolume(volume string) error {
	if err := errors.ValidateName(volume); err != nil {
		return err
	}
	id.volume = volume
	return nil
}

// Source returns the path the data was read from, if any.
func (id *Identity) Source() string { return id.source }

// SetSource records the path the data was read from.
func (id *Identity) SetSource(path string) { id.source = path }

// Spatial returns the shared spatial attributes. The pointer is stable for the
// lifetime of the identity.
func (id *Identity) Spatial() *Spatial { return id.spatial }

// Clone returns a new identity with a fresh UUID, the same name, volume and
// source, an independent copy of the spatial attributes and no observers.
func (id *Identity) Clone() *Identity {
	sp := *id.spatial
	return &Identity{
		id:      uuid.New(),
		name:    id.name,
		volume:  id.volume,
		source:  id.source,
		spatial: &sp,
	}
}

// Subscribe registers fn to be called on every notification.
// The returned function removes the subscription.
func (id *Identity) Subscribe(fn func()) (cancel func()) {
	id.nextObs++
	key := id.nextObs
	id.observers = append(id.observers, observer{id: key, fn: fn})
	return func() {
		for i, o := range id.observers {
			if o.id == key {
				id.observers = append(id.observers[:i], id.observers[i+1:]...)
				return
			}
		}
	}
}

// Observers returns the number of live subscriptions.
func (id *Identity) Observers() int { return len(id.observers) }

// Notify calls every observer once. Inside [Identity.Batch] the call is
// deferred until the outermost batch returns.
func (id *Identity) Notify() {
	if id.batching > 0 {
		id.pending = true
		return
	}
	for _, o := range append([]observer(nil), id.observers...) {
		o.fn()
	}
}

// Batch runs fn with notifications coalesced: any number of Notify calls made
// by fn result in at most one notification after fn returns.
func (id *Identity) Batch(fn func() error) error {
	id.batching++
	err := fn()
	id.batching--
	if id.batching == 0 && id.pending {
		id.pending = false
		id.Notify()
	}
	return err
}
