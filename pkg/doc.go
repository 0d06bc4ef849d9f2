// Package pkg provides the core libraries of blik, a toolkit for cryo-electron
// tomography data.
//
// # Overview
//
// blik models particle picks, subtomogram averaging results, meshes and
// tomograms as typed datablocks that share an identity (name, volume,
// pixel size) and can be combined, sliced and edited without losing that
// identity. The pkg directory is organized into these areas:
//
//  1. [block] - The datablock model: simple blocks, composites, rotations
//  2. [dataset] - Ordered collections of blocks grouped by volume
//  3. [io] - Readers and writers for RELION .star, Dynamo .tbl, .box and FITS
//  4. [depict] - Projection of blocks onto renderer-agnostic layers
//  5. [pipeline] - Orchestration (parse → group → depict) with caching
//  6. [cache], [observability], [errors], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through blik:
//
//	.star / .tbl / .box / .fits files
//	         ↓
//	    [io] package (records, then blocks)
//	         ↓
//	    [dataset] package (grouping by volume)
//	         ↓
//	    [depict] package (layers in a scene)
//	         ↓
//	    JSON layers, converted files, HTTP feed
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Paths: []string{"run_data.star"},
//	    Show:  "TS_01",
//	})
//	if err != nil {
//	    return err
//	}
//	for _, layer := range result.Scene.Visible() {
//	    fmt.Println(layer.Name, layer.Kind, layer.Len())
//	}
package pkg
