package io

import (
	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// ToBlocks converts a record into datablocks. Particle tables become particle
// sets with their Euler angles resolved through the format's convention and
// their shifts folded into positions; box picks become particle sets in 2-D;
// images become image blocks.
func ToBlocks(rec Record) ([]block.Block, error) {
	opts := []block.Option{
		block.WithName(recordName(rec)),
		block.WithVolume(rec.Meta.Volume),
		block.WithSource(rec.Meta.Source),
	}
	if rec.Meta.PixelSize > 0 {
		opts = append(opts, block.WithPixelSize(rec.Meta.PixelSize))
	}

	var (
		b   block.Block
		err error
	)
	switch rec.Format {
	case FormatSTAR:
		b, err = starParticles(rec, opts)
	case FormatTBL:
		b, err = tblParticles(rec, opts)
	case FormatBOX:
		b, err = boxParticles(rec, opts)
	case FormatFITS:
		if rec.Image == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "fits record %s has no image", rec.Meta.Source)
		}
		b, err = block.NewImageBlock(*rec.Image, opts...)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "no block conversion for format %q", rec.Format)
	}
	if err != nil {
		return nil, err
	}
	return []block.Block{b}, nil
}

// recordName names a block after its source file and, when the file covers
// several volumes, the volume.
func recordName(rec Record) string {
	name := stem(rec.Meta.Source)
	if rec.Meta.Volume != "" && rec.Meta.Volume != name {
		name += "_" + rec.Meta.Volume
	}
	return name
}

// columns pulls the named numeric columns, treating absent ones as zero.
// ok reports whether at least one was present.
func columns(rec Record, names ...string) (cols [][]float64, ok bool) {
	n := rec.Len()
	cols = make([][]float64, len(names))
	for i, name := range names {
		if c, found := rec.Columns[name]; found {
			cols[i] = c
			ok = true
			continue
		}
		cols[i] = make([]float64, n)
	}
	return cols, ok
}

func rows3(cols [][]float64) [][3]float64 {
	out := make([][3]float64, len(cols[0]))
	for i := range out {
		out[i] = [3]float64{cols[0][i], cols[1][i], cols[2][i]}
	}
	return out
}

func rotations(conv block.Convention, angles [][3]float64) ([][3][3]float64, error) {
	out := make([][3][3]float64, len(angles))
	for i, a := range angles {
		m, err := block.FromEuler(conv, a)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// properties collects every column not in used.
func properties(rec Record, used map[string]bool) map[string]any {
	out := map[string]any{}
	for name, c := range rec.Columns {
		if !used[name] {
			out[name] = c
		}
	}
	for name, c := range rec.Strings {
		if !used[name] {
			out[name] = c
		}
	}
	return out
}

func starParticles(rec Record, opts []block.Option) (block.Block, error) {
	if _, ok := rec.Columns[starX]; !ok {
		return nil, errors.New(errors.ErrCodeMissingMetadata, "star record %s has no %s column", rec.Meta.Source, starX)
	}
	coords, _ := columns(rec, starX, starY, starZ)
	pos := rows3(coords)

	if origins, ok := columns(rec, starOriginXAngst, starOriginYAngst, starOriginZAngst); ok {
		if rec.Meta.PixelSize <= 0 {
			return nil, errors.New(errors.ErrCodeMissingMetadata, "star record %s has shifts in Angstrom but no pixel size", rec.Meta.Source)
		}
		for i, o := range rows3(origins) {
			for k := range 3 {
				pos[i][k] -= o[k] / rec.Meta.PixelSize
			}
		}
	} else if origins, ok := columns(rec, starOriginX, starOriginY, starOriginZ); ok {
		for i, o := range rows3(origins) {
			for k := range 3 {
				pos[i][k] -= o[k]
			}
		}
	}

	o := block.ParticleOptions{PositionsData: pos}
	if angles, ok := columns(rec, starRot, starTilt, starPsi); ok {
		rots, err := rotations(block.ConventionRELION, rows3(angles))
		if err != nil {
			return nil, err
		}
		o.OrientationsData = rots
	}
	o.PropertiesData = properties(rec, reservedSTAR)
	return block.NewParticleBlock(o, opts...)
}

func tblParticles(rec Record, opts []block.Option) (block.Block, error) {
	if _, ok := rec.Columns["x"]; !ok {
		return nil, errors.New(errors.ErrCodeMissingMetadata, "tbl record %s has no x column", rec.Meta.Source)
	}
	coords, _ := columns(rec, "x", "y", "z")
	shifts, _ := columns(rec, "dx", "dy", "dz")
	pos := rows3(coords)
	for i, s := range rows3(shifts) {
		for k := range 3 {
			pos[i][k] += s[k]
		}
	}
	angles, _ := columns(rec, "tdrot", "tilt", "narot")
	rots, err := rotations(block.ConventionDynamo, rows3(angles))
	if err != nil {
		return nil, err
	}
	return block.NewParticleBlock(block.ParticleOptions{
		PositionsData:    pos,
		OrientationsData: rots,
		PropertiesData:   properties(rec, tblReserved),
	}, opts...)
}

func boxParticles(rec Record, opts []block.Option) (block.Block, error) {
	cols, ok := columns(rec, "x", "y", "width", "height")
	if !ok {
		return nil, errors.New(errors.ErrCodeMissingMetadata, "box record %s has no coordinates", rec.Meta.Source)
	}
	centers := make([][2]float64, len(cols[0]))
	for i := range centers {
		centers[i] = [2]float64{cols[0][i] + cols[2][i]/2, cols[1][i] + cols[3][i]/2}
	}
	return block.NewParticleBlock(block.ParticleOptions{
		PositionsData:  centers,
		PropertiesData: properties(rec, map[string]bool{"x": true, "y": true}),
	}, opts...)
}

// OpenImage returns an image block whose voxels are read from the FITS file
// at path on first access.
func OpenImage(path string, opts ...block.Option) (*block.ImageBlock, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	opts = append([]block.Option{block.WithName(stem(path)), block.WithSource(path)}, opts...)
	return block.NewLazyImageBlock(func() (block.Voxels, error) {
		recs, err := FITSReader{}.Read(path)
		if err != nil {
			return block.Voxels{}, err
		}
		return *recs[0].Image, nil
	}, opts...)
}
