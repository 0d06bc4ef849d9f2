// Package io reads particle tables and images from disk and writes them back.
//
// # Overview
//
// Readers turn a file into [Record] values: named columns plus the metadata
// the file carries (pixel size, source path, volume). [ToBlocks] converts a
// record into datablocks. Writers go the other way, from a block to a file.
//
// # Formats
//
//   - STAR (RELION 3.0 and 3.1): particle tables, one record per micrograph
//     or tomogram. Pixel sizes come from the optics table or, for 3.0 files,
//     from per-row columns.
//   - TBL (Dynamo): whitespace separated tables with at least 26 columns,
//     one record per tomogram number.
//   - BOX (EMAN2, crYOLO): 2-D picks, one record per file.
//   - FITS: the primary image, read with github.com/astrogo/fitsio.
//
// # Conventions
//
// Euler angles are read with the format's convention: RELION (rot, tilt,
// psi) for STAR and Dynamo (tdrot, tilt, narot) for TBL. Shifts are folded
// into positions on read, so a particle set carries centred positions only:
//
//	STAR 3.1: position = coordinate - rlnOriginXAngst / pixel size
//	STAR 3.0: position = coordinate - rlnOriginX
//	TBL:      position = x + dx
//
// Writers therefore emit zero shifts. Writing a particle set and reading it
// back reproduces positions and orientations.
//
// # Dispatch
//
// A [Dispatcher] tries every reader claiming a file's extension in order.
// A reader that cannot interpret its input returns *errors.ParseError and the
// next candidate is tried. The parse error surfaces only when no candidate
// succeeds or when strict mode is requested:
//
//	res, err := io.DefaultDispatcher().ReadMany(paths, false)
//	for _, f := range res.Failed {
//	    log.Warn("skipped", "path", f.Path, "err", f.Err)
//	}
//
// # Metadata
//
// Writers refuse blocks lacking metadata the format needs to identify rows.
// STAR and TBL files require a volume tag; the error code is
// MISSING_METADATA and nothing is written.
//
// # Layer export
//
// [WriteJSON] and [ExportJSON] store the layer descriptors of a
// depict.Scene, the hand-off format for viewers outside this module.
package io
