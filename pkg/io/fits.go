package io

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// Header cards written by FITSWriter and honoured by FITSReader.
const (
	fitsPixelCard  = "PIXSIZE"
	fitsVolumeCard = "VOLUME"
)

// FITSReader reads the primary image of a FITS file. The axes are reversed so
// the voxel shape is slowest axis first.
type FITSReader struct{}

func (FITSReader) Format() string       { return FormatFITS }
func (FITSReader) Extensions() []string { return []string{".fits", ".fit", ".fts"} }

func (FITSReader) Read(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, &errors.ParseError{Format: FormatFITS, Path: path, Cause: err}
	}
	defer fits.Close()

	img, ok := fits.HDU(0).(fitsio.Image)
	if !ok {
		return nil, &errors.ParseError{Format: FormatFITS, Path: path, Cause: fmt.Errorf("primary HDU is not an image")}
	}
	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) == 0 {
		return nil, &errors.ParseError{Format: FormatFITS, Path: path, Cause: fmt.Errorf("primary image has no axes")}
	}
	data, err := readFITSData(img, axes)
	if err != nil {
		return nil, &errors.ParseError{Format: FormatFITS, Path: path, Cause: err}
	}
	scale, zero := 1.0, 0.0
	if v, ok := cardFloat(hdr.Get("BSCALE")); ok {
		scale = v
	}
	if v, ok := cardFloat(hdr.Get("BZERO")); ok {
		zero = v
	}
	if scale != 1 || zero != 0 {
		for i, v := range data {
			data[i] = float32(float64(v)*scale + zero)
		}
	}

	shape := make([]int, len(axes))
	for i, a := range axes {
		shape[len(axes)-1-i] = a
	}
	meta := Meta{Source: path, Volume: stem(path)}
	if v, ok := cardFloat(hdr.Get(fitsPixelCard)); ok {
		meta.PixelSize = v
	} else if v, ok := cardFloat(hdr.Get("CDELT1")); ok {
		meta.PixelSize = v
	}
	if c := hdr.Get(fitsVolumeCard); c != nil {
		if s, ok := c.Value.(string); ok && s != "" {
			meta.Volume = s
		}
	}
	return []Record{{Format: FormatFITS, Image: &block.Voxels{Shape: shape, Data: data}, Meta: meta}}, nil
}

func readFITSData(img fitsio.Image, axes []int) ([]float32, error) {
	n := 1
	for _, a := range axes {
		n *= a
	}
	out := make([]float32, n)
	switch bitpix := img.Header().Bitpix(); bitpix {
	case -32:
		if err := img.Read(&out); err != nil {
			return nil, err
		}
	case -64:
		buf := make([]float64, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)
		}
	case 16:
		buf := make([]int16, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)
		}
	case 32:
		buf := make([]int32, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)
		}
	case 64:
		buf := make([]int64, n)
		if err := img.Read(&buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	return out, nil
}

func cardFloat(c *fitsio.Card) (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// FITSWriter writes image blocks as a single float32 primary image.
type FITSWriter struct{}

func (FITSWriter) Format() string       { return FormatFITS }
func (FITSWriter) Extensions() []string { return []string{".fits", ".fit", ".fts"} }

func (FITSWriter) Write(b block.Block, path string) error {
	im, ok := b.(*block.ImageBlock)
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "cannot write %s blocks as fits images", b.Kind())
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	v, err := im.Voxels()
	if err != nil {
		return err
	}
	axes := make([]int, len(v.Shape))
	for i, s := range v.Shape {
		axes[len(v.Shape)-1-i] = s
	}
	cards := []fitsio.Card{}
	if ps, ok := b.Identity().Spatial().IsotropicPixelSize(); ok {
		cards = append(cards, fitsio.Card{Name: fitsPixelCard, Value: ps, Comment: "pixel size"})
	}
	if vol := b.Identity().Volume(); vol != "" {
		cards = append(cards, fitsio.Card{Name: fitsVolumeCard, Value: vol})
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	fits, err := fitsio.Create(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create fits %s", path)
	}
	defer fits.Close()
	img := fitsio.NewImage(-32, axes)
	defer img.Close()
	if err := img.Header().Append(cards...); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "fits header")
	}
	if err := img.Write(v.Data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "fits data")
	}
	if err := fits.Write(img); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
