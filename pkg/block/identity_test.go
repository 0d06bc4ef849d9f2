package block

import (
	"testing"

	"github.com/matzehuels/blik/pkg/errors"
)

func TestIdentityBatchCoalesces(t *testing.T) {
	id := NewIdentity("x")
	calls := 0
	cancel := id.Subscribe(func() { calls++ })

	err := id.Batch(func() error {
		id.Notify()
		id.Notify()
		return id.Batch(func() error {
			id.Notify()
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	_ = id.Batch(func() error { return nil })
	if calls != 1 {
		t.Errorf("empty batch notified: calls = %d", calls)
	}

	cancel()
	id.Notify()
	if calls != 1 || id.Observers() != 0 {
		t.Errorf("cancelled observer still called: calls=%d observers=%d", calls, id.Observers())
	}
}

func TestIdentityClone(t *testing.T) {
	id := NewIdentity("a")
	_ = id.SetVolume("v")
	_ = id.Spatial().SetPixelSize(2)
	id.Subscribe(func() {})

	c := id.Clone()
	if c.ID() == id.ID() || c.Name() != "a" || c.Volume() != "v" || c.Observers() != 0 {
		t.Errorf("Clone() = %+v", c)
	}
	_ = c.Spatial().SetPixelSize(3)
	if id.Spatial().PixelSize()[0] != 2 {
		t.Error("Clone shares spatial attributes")
	}
}

func TestSpatialPixelSize(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		want    [3]float64
		wantErr bool
	}{
		{"unset", nil, [3]float64{1, 1, 1}, false},
		{"broadcast", []float64{2.5}, [3]float64{2.5, 2.5, 2.5}, false},
		{"zero coerces", []float64{0, 2, 0}, [3]float64{1, 2, 1}, false},
		{"negative", []float64{-1}, [3]float64{}, true},
		{"two values", []float64{1, 2}, [3]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSpatial(tt.in...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s.PixelSize() != tt.want {
				t.Errorf("PixelSize() = %v, want %v", s.PixelSize(), tt.want)
			}
		})
	}
	if _, err := NewPointBlock(nil, WithDimsOrder("xxy")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad dims order: %v", err)
	}
}
