package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/depict"
	"github.com/matzehuels/blik/pkg/errors"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func particleOf(t *testing.T, rec Record) *block.ParticleBlock {
	t.Helper()
	blocks, err := ToBlocks(rec)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := blocks[0].(*block.ParticleBlock)
	if !ok {
		t.Fatalf("ToBlocks returned %s, want particle", blocks[0].Kind())
	}
	return p
}

const star31 = `
# version 30001

data_optics

loop_
_rlnOpticsGroup #1
_rlnImagePixelSize #2
1 2.0

# version 30001

data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnCoordinateZ #3
_rlnOriginXAngst #4
_rlnOriginYAngst #5
_rlnOriginZAngst #6
_rlnAngleRot #7
_rlnAngleTilt #8
_rlnAnglePsi #9
_rlnMicrographName #10
_rlnOpticsGroup #11
_rlnClassNumber #12
10 20 30 2 4 6 0 0 0 TS_01 1 1
11 21 31 0 0 0 30 90 10 TS_02 1 2
`

func TestSTARReader31(t *testing.T) {
	path := writeFile(t, "run_data.star", star31)
	recs, err := STARReader{}.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want one per micrograph", len(recs))
	}
	if recs[0].Meta.Volume != "TS_01" || recs[1].Meta.Volume != "TS_02" {
		t.Errorf("volumes = %q, %q", recs[0].Meta.Volume, recs[1].Meta.Volume)
	}
	if recs[0].Meta.PixelSize != 2 {
		t.Errorf("PixelSize = %g, want 2 from the optics table", recs[0].Meta.PixelSize)
	}

	p := particleOf(t, recs[0])
	if diff := cmp.Diff([][3]float64{{9, 18, 27}}, p.Positions().Spatial(), approx); diff != "" {
		t.Errorf("shifts not folded into positions (-want +got):\n%s", diff)
	}
	if got := p.Identity().Volume(); got != "TS_01" {
		t.Errorf("volume = %q", got)
	}
	if got := p.Identity().Name(); got != "run_data_TS_01" {
		t.Errorf("name = %q", got)
	}
	if got, _ := p.Properties().Float("rlnClassNumber"); !cmp.Equal(got, []float64{1}) {
		t.Errorf("rlnClassNumber = %v", got)
	}
	if p.Properties().Has(starMicrograph) || p.Properties().Has(starOriginXAngst) {
		t.Error("consumed columns leaked into properties")
	}

	q := particleOf(t, recs[1])
	want, _ := block.FromEuler(block.ConventionRELION, [3]float64{30, 90, 10})
	if diff := cmp.Diff(want, q.Orientations().Matrix(0), approx); diff != "" {
		t.Errorf("orientation mismatch (-want +got):\n%s", diff)
	}
}

func TestSTARReader30(t *testing.T) {
	path := writeFile(t, "picks.star", `
data_

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnOriginX #3
_rlnOriginY #4
_rlnDetectorPixelSize #5
_rlnMagnification #6
100 200 1.5 -2 14 100000
`)
	recs, err := STARReader{}.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := recs[0].Meta.PixelSize; got < 1.4-1e-12 || got > 1.4+1e-12 {
		t.Errorf("PixelSize = %g, want 1.4", got)
	}
	p := particleOf(t, recs[0])
	if diff := cmp.Diff([][3]float64{{98.5, 202, 0}}, p.Positions().Spatial(), approx); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
	if p.Identity().Volume() != "" || p.Identity().Name() != "picks" {
		t.Errorf("identity = %q @ %q", p.Identity().Name(), p.Identity().Volume())
	}
}

func TestSTARReaderRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no data block", "_rlnCoordinateX 1\n"},
		{"ragged row", "data_\nloop_\n_rlnCoordinateX\n_rlnCoordinateY\n1 2 3\n"},
		{"no coordinates", "data_\nloop_\n_rlnAngleRot\n1\n"},
		{"empty table", "data_\nloop_\n_rlnCoordinateX\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := STARReader{}.Read(writeFile(t, "bad.star", tt.content))
			var perr *errors.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Format != FormatSTAR {
				t.Errorf("Format = %q", perr.Format)
			}
		})
	}
}

func roundTripParticles(t *testing.T) *block.ParticleBlock {
	t.Helper()
	angles := [][3]float64{{0, 0, 0}, {30, 60, 90}, {-45, 120, 10}}
	ori, err := block.NewOrientationBlockFromEuler(block.ConventionRELION, angles)
	if err != nil {
		t.Fatal(err)
	}
	p, err := block.NewParticleBlock(block.ParticleOptions{
		PositionsData: [][]float64{{1.25, 2.5, 3.75}, {100, 200, 300}, {-1, 0.1, 1e-3}},
		Orientations:  ori,
		PropertiesData: map[string]any{
			"score": []float64{0.1, 0.5, 0.9},
		},
	}, block.WithName("ribos"), block.WithVolume("7"), block.WithPixelSize(2.5))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		writer Writer
		reader Reader
	}{
		{"star", "out.star", STARWriter{}, STARReader{}},
		{"tbl", "out.tbl", TBLWriter{}, TBLReader{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := roundTripParticles(t)
			path := filepath.Join(t.TempDir(), tt.file)
			if err := tt.writer.Write(p, path); err != nil {
				t.Fatal(err)
			}
			recs, err := tt.reader.Read(path)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 1 || recs[0].Meta.Volume != "7" {
				t.Fatalf("records = %d, volume %q", len(recs), recs[0].Meta.Volume)
			}
			got := particleOf(t, recs[0])
			if diff := cmp.Diff(p.Positions().Spatial(), got.Positions().Spatial(), approx); diff != "" {
				t.Errorf("positions (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(p.Orientations().Matrices(), got.Orientations().Matrices(), approx); diff != "" {
				t.Errorf("orientations (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSTARRoundTripKeepsProperties(t *testing.T) {
	p := roundTripParticles(t)
	path := filepath.Join(t.TempDir(), "out.star")
	if err := Write(p, path); err != nil {
		t.Fatal(err)
	}
	recs, err := STARReader{}.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Meta.PixelSize != 2.5 {
		t.Errorf("PixelSize = %g, want 2.5", recs[0].Meta.PixelSize)
	}
	got, err := particleOf(t, recs[0]).Properties().Float("score")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0.1, 0.5, 0.9}, got); diff != "" {
		t.Errorf("score (-want +got):\n%s", diff)
	}
}

func TestWritersRequireVolume(t *testing.T) {
	p, err := block.NewParticleBlock(block.ParticleOptions{PositionsData: [][]float64{{1, 2, 3}}})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []Writer{STARWriter{}, TBLWriter{}} {
		t.Run(w.Format(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+w.Format())
			err := w.Write(p, path)
			if !errors.Is(err, errors.ErrCodeMissingMetadata) {
				t.Fatalf("err = %v, want MISSING_METADATA", err)
			}
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				t.Error("writer created a file despite missing metadata")
			}
		})
	}

	// A non-numeric volume cannot name a Dynamo tomogram.
	_ = p.Identity().SetVolume("TS_01")
	err = TBLWriter{}.Write(p, filepath.Join(t.TempDir(), "out.tbl"))
	if !errors.Is(err, errors.ErrCodeMissingMetadata) {
		t.Errorf("tbl with named volume: %v", err)
	}
}

func tblRow(values map[int]string) string {
	fields := make([]string, tblMinColumns)
	for i := range fields {
		fields[i] = "0"
		if v, ok := values[i]; ok {
			fields[i] = v
		}
	}
	return strings.Join(fields, " ")
}

func TestTBLReader(t *testing.T) {
	content := tblRow(map[int]string{0: "1", 3: "1", 4: "2", 5: "3", 19: "5", 23: "10", 24: "20", 25: "30", 9: "0.7"}) + "\n" +
		tblRow(map[int]string{0: "2", 19: "6", 23: "1", 24: "1", 25: "1"}) + "\n"
	recs, err := TBLReader{}.Read(writeFile(t, "crop.tbl", content))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Meta.Volume != "5" || recs[1].Meta.Volume != "6" {
		t.Fatalf("records split by tomo: %+v", recs)
	}
	p := particleOf(t, recs[0])
	if diff := cmp.Diff([][3]float64{{11, 22, 33}}, p.Positions().Spatial()); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
	if cc, _ := p.Properties().Float("cc"); !cmp.Equal(cc, []float64{0.7}) {
		t.Errorf("cc = %v", cc)
	}
	if p.Properties().Has("dx") || p.Properties().Has("tomo") {
		t.Error("consumed columns leaked into properties")
	}

	_, err = TBLReader{}.Read(writeFile(t, "short.tbl", "1 2 3\n"))
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("short table: %v, want PARSE", err)
	}
}

func TestBOXReader(t *testing.T) {
	recs, err := BOXReader{}.Read(writeFile(t, "mic_001.box", "10 20 50 50\n100 100 50 50\n"))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Meta.Volume != "mic_001" {
		t.Errorf("volume = %q, want the file stem", recs[0].Meta.Volume)
	}
	p := particleOf(t, recs[0])
	if diff := cmp.Diff([][3]float64{{35, 45, 0}, {125, 125, 0}}, p.Positions().Spatial()); diff != "" {
		t.Errorf("centers (-want +got):\n%s", diff)
	}
	if w, _ := p.Properties().Float("width"); !cmp.Equal(w, []float64{50, 50}) {
		t.Errorf("width = %v", w)
	}
}

func TestFITSRoundTrip(t *testing.T) {
	data := make([]float32, 2*3*4)
	for i := range data {
		data[i] = float32(i) / 2
	}
	im, err := block.NewImageBlock(block.Voxels{Shape: []int{2, 3, 4}, Data: data},
		block.WithVolume("TS_01"), block.WithPixelSize(1.5))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "tomo.fits")
	if err := Write(im, path); err != nil {
		t.Fatal(err)
	}

	recs, err := FITSReader{}.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := recs[0]
	if diff := cmp.Diff([]int{2, 3, 4}, rec.Image.Shape); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(data, rec.Image.Data); diff != "" {
		t.Errorf("voxels (-want +got):\n%s", diff)
	}
	if rec.Meta.PixelSize != 1.5 || rec.Meta.Volume != "TS_01" {
		t.Errorf("meta = %+v", rec.Meta)
	}

	lazy, err := OpenImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if lazy.Loaded() {
		t.Error("OpenImage read voxels eagerly")
	}
	if lazy.Len() != 2 || !lazy.Loaded() {
		t.Errorf("Len = %d after first access", lazy.Len())
	}
}

// failingReader claims .star files and never understands them.
type failingReader struct{ calls *int }

func (failingReader) Format() string       { return "fake" }
func (failingReader) Extensions() []string { return []string{".star"} }
func (r failingReader) Read(path string) ([]Record, error) {
	*r.calls++
	return nil, &errors.ParseError{Format: "fake", Path: path}
}

func TestDispatcher(t *testing.T) {
	good := writeFile(t, "good.star", star31)
	calls := 0
	d := NewDispatcher(failingReader{&calls}, STARReader{})

	recs, err := d.Read(good, false)
	if err != nil {
		t.Fatalf("fallback to the next reader failed: %v", err)
	}
	if len(recs) != 2 || calls != 1 {
		t.Errorf("records = %d, fake reader calls = %d", len(recs), calls)
	}
	if diff := cmp.Diff([]string{".star"}, d.Extensions()); diff != "" {
		t.Errorf("Extensions() mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.Read(good, true); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("strict: %v, want the first PARSE error", err)
	}

	bad := writeFile(t, "bad.star", "garbage\n")
	if _, err := d.Read(bad, false); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("all candidates failing: %v, want PARSE", err)
	}
	if _, err := d.Read(filepath.Join(t.TempDir(), "x.mrc"), false); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("unknown extension: %v, want UNSUPPORTED", err)
	}
	if _, err := DefaultDispatcher().Read(filepath.Join(t.TempDir(), "missing.star"), false); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing file: %v, want INVALID_PATH", err)
	}

	res, err := d.ReadMany([]string{good, bad}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 || len(res.Failed) != 1 || res.Failed[0].Path != bad {
		t.Errorf("ReadMany = %d records, failed %+v", len(res.Records), res.Failed)
	}
	if _, err := NewDispatcher(STARReader{}).ReadMany([]string{good, bad}, true); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("strict ReadMany: %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	s := depict.NewScene()
	if _, err := s.Add(depict.Layer{Name: "ribos", Kind: depict.LayerPoints, Volume: "TS_01", Data: [][3]float64{{3, 2, 1}}}); err != nil {
		t.Fatal(err)
	}
	s.ShowVolume("TS_01")
	var buf bytes.Buffer
	if err := WriteJSON(s.Layers(), s.Volume(), &buf); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Volume string `json:"volume"`
		Layers []struct {
			Name  string         `json:"name"`
			Kind  string         `json:"kind"`
			Data  [][3]float64   `json:"data"`
			Attrs map[string]any `json:"attrs"`
		} `json:"layers"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Volume != "TS_01" || len(got.Layers) != 1 || got.Layers[0].Kind != "points" {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Layers[0].Attrs["visible"] != true {
		t.Error("visibility not exported")
	}
	if diff := cmp.Diff([][3]float64{{3, 2, 1}}, got.Layers[0].Data); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}
}

func TestExportJSON(t *testing.T) {
	s := depict.NewScene()
	if _, err := s.Add(depict.Layer{Name: "ribos", Kind: depict.LayerPoints, Volume: "TS_02", Data: [][3]float64{{1, 1, 1}}}); err != nil {
		t.Fatal(err)
	}
	s.ShowVolume("TS_02")
	path := filepath.Join(t.TempDir(), "layers.json")
	if err := ExportJSON(s, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"volume": "TS_02"`)) {
		t.Errorf("exported file does not record the volume:\n%s", data)
	}
	if err := ExportJSON(s, filepath.Join(t.TempDir(), "missing", "layers.json")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestSTARWriterRejects(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		pixel []float64
		want  errors.Code
	}{
		{"column name with space", map[string]any{"my score": []float64{0.5}}, []float64{2}, errors.ErrCodeInvalidInput},
		{"string value with space", map[string]any{"label": []string{"large subunit"}}, []float64{2}, errors.ErrCodeInvalidInput},
		{"anisotropic pixel size", nil, []float64{1, 1, 2}, errors.ErrCodeMissingMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := block.NewParticleBlock(block.ParticleOptions{
				PositionsData:  [][]float64{{1, 2, 3}},
				PropertiesData: tt.props,
			}, block.WithVolume("TS_01"), block.WithPixelSize(tt.pixel...))
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "out.star")
			if err := (STARWriter{}).Write(p, path); !errors.Is(err, tt.want) {
				t.Fatalf("Write() = %v, want %s", err, tt.want)
			}
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				t.Error("writer created a file for data it cannot store")
			}
		})
	}
}
