package block

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/blik/pkg/errors"
)

func TestNewPointBlockPadding(t *testing.T) {
	p, err := NewPointBlock([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("NewPointBlock: %v", err)
	}
	n, d := p.Shape()
	if n != 2 || d != 3 {
		t.Fatalf("Shape() = (%d, %d), want (2, 3)", n, d)
	}
	if diff := cmp.Diff([]float64{1, 3}, p.X()); diff != "" {
		t.Errorf("X() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2, 4}, p.Y()); diff != "" {
		t.Errorf("Y() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0}, p.Z()); diff != "" {
		t.Errorf("Z() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPointBlockShapes(t *testing.T) {
	tests := []struct {
		name  string
		data  any
		wantN int
		wantD int
	}{
		{"nil", nil, 0, 3},
		{"empty", [][]float64{}, 0, 3},
		{"empty 1-D", []float64{}, 0, 3},
		{"1-D", []float64{1, 2, 3}, 1, 3},
		{"1-D short", []float64{5}, 1, 3},
		{"4-D keeps leading column", [][]float64{{7, 1, 2, 3}}, 1, 4},
		{"float32", [][]float32{{1, 2, 3}, {4, 5, 6}}, 2, 3},
		{"int", [][]int{{1, 2}}, 1, 3},
		{"arrays", [][3]float64{{1, 2, 3}}, 1, 3},
		{"2-D arrays", [][2]float64{{1, 2}, {3, 4}, {5, 6}}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPointBlock(tt.data)
			if err != nil {
				t.Fatalf("NewPointBlock: %v", err)
			}
			n, d := p.Shape()
			if n != tt.wantN || d != tt.wantD {
				t.Errorf("Shape() = (%d, %d), want (%d, %d)", n, d, tt.wantN, tt.wantD)
			}
		})
	}
}

func TestNewPointBlockLeadingColumns(t *testing.T) {
	p, err := NewPointBlock([][]float64{{9, 1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 0); got != 9 {
		t.Errorf("leading column = %v, want 9", got)
	}
	if diff := cmp.Diff([][3]float64{{1, 2, 3}}, p.Spatial()); diff != "" {
		t.Errorf("Spatial() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPointBlockErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
		code errors.Code
	}{
		{"ragged", [][]float64{{1, 2, 3}, {1}}, errors.ErrCodeInvalidShape},
		{"strings", []string{"a"}, errors.ErrCodeInvalidDType},
		{"map", map[string]float64{}, errors.ErrCodeInvalidDType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPointBlock(tt.data)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestPointBlockDimsOrder(t *testing.T) {
	p, err := NewPointBlock([][]float64{{3, 2, 1}}, WithDimsOrder("zyx"))
	if err != nil {
		t.Fatal(err)
	}
	if got := p.X()[0]; got != 1 {
		t.Errorf("X() = %v, want 1", got)
	}
	if got := p.Z()[0]; got != 3 {
		t.Errorf("Z() = %v, want 3", got)
	}
}

func TestPointBlockSliceAndView(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}, WithName("pts"))

	s, err := p.Slice(Mask{true, false, true})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if s.Len() != 2 || !s.IsView() {
		t.Fatalf("Slice: len=%d view=%v, want 2 true", s.Len(), s.IsView())
	}
	if s.Identity() != p.Identity() {
		t.Error("slice should share the owner identity")
	}

	// Slices copy rows, views alias them.
	if err := s.Set(0, []float64{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	if p.At(0, 0) != 0 {
		t.Error("editing a slice changed the owner")
	}
	v := p.View()
	if err := v.Set(0, []float64{5, 5, 5}); err != nil {
		t.Fatal(err)
	}
	if p.At(0, 0) != 5 {
		t.Error("editing a view did not change the owner")
	}

	// Renaming through a view renames the owner.
	if err := v.Identity().SetName("renamed"); err != nil {
		t.Fatal(err)
	}
	if p.Name() != "renamed" {
		t.Errorf("owner name = %q, want renamed", p.Name())
	}
}

func TestPointBlockViewImmutable(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{0, 0, 0}})
	other, _ := NewPointBlock([][]float64{{1, 1, 1}})
	v := p.View()

	err := v.Append(other)
	if !errors.Is(err, errors.ErrCodeImmutableView) {
		t.Errorf("Append on view: %v, want IMMUTABLE_VIEW", err)
	}
	err = v.SetData([][]float64{{1, 1, 1}, {2, 2, 2}})
	if !errors.Is(err, errors.ErrCodeImmutableView) {
		t.Errorf("resizing SetData on view: %v, want IMMUTABLE_VIEW", err)
	}
	if err := v.SetData([][]float64{{4, 4, 4}}); err != nil {
		t.Errorf("same-size SetData on view: %v", err)
	}
}

func TestPointBlockAppend(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{0, 0, 0}})
	q, _ := NewPointBlock([][]float64{{1, 1, 1}, {2, 2, 2}})
	calls := 0
	p.Identity().Subscribe(func() { calls++ })

	if err := p.Append(q); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
	if calls != 1 {
		t.Errorf("observers called %d times, want 1", calls)
	}

	four, _ := NewPointBlock([][]float64{{1, 2, 3, 4}})
	if err := p.Append(four); !errors.Is(err, errors.ErrCodeInvalidShape) {
		t.Errorf("Append 4-d: %v, want INVALID_SHAPE", err)
	}
}

func TestPointBlockCopy(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{1, 2, 3}}, WithName("a"), WithVolume("tomo"))
	c := p.Copy()
	if c.Identity() == p.Identity() || c.Identity().ID() == p.Identity().ID() {
		t.Error("Copy should have its own identity")
	}
	if c.Name() != "a" || c.Volume() != "tomo" {
		t.Errorf("Copy lost name/volume: %q %q", c.Name(), c.Volume())
	}
	_ = c.Set(0, []float64{0, 0, 0})
	if p.At(0, 0) != 1 {
		t.Error("Copy shares data with the original")
	}
}

func TestPointBlockCenter(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{0, 0, 0}, {2, 4, 6}})
	if got, want := p.Center(), [3]float64{1, 2, 3}; got != want {
		t.Errorf("Center() = %v, want %v", got, want)
	}
	empty, _ := NewPointBlock(nil)
	if got := empty.Center(); got != [3]float64{} {
		t.Errorf("empty Center() = %v", got)
	}
}

func TestNeighbors(t *testing.T) {
	p, _ := NewPointBlock([][]float64{{0, 0, 0}, {10, 0, 0}, {1, 0, 0}, {0, 3, 0}})

	got := p.Neighbors([3]float64{0, 0, 0}, 2)
	want := []Neighbor{{Index: 0, Distance: 0}, {Index: 2, Distance: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Neighbors mismatch (-want +got):\n%s", diff)
	}

	got = p.WithinRadius([3]float64{0, 0, 0}, 3.5)
	want = []Neighbor{{Index: 0, Distance: 0}, {Index: 2, Distance: 1}, {Index: 3, Distance: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WithinRadius mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectors(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selector
		want    []int
		wantErr bool
	}{
		{"index", Index(1), []int{1}, false},
		{"negative index", Index(-1), []int{4}, false},
		{"index out of range", Index(5), nil, true},
		{"range", Range{Start: 1, Stop: 3}, []int{1, 2}, false},
		{"range all", Range{}, []int{0, 1, 2, 3, 4}, false},
		{"range clamped", Range{Start: 3, Stop: 100}, []int{3, 4}, false},
		{"mask", Mask{true, false, false, true, false}, []int{0, 3}, false},
		{"short mask", Mask{true}, nil, true},
		{"indices", Indices{4, 0}, []int{4, 0}, false},
		{"all", All{}, []int{0, 1, 2, 3, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sel.indices(5)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("indices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
