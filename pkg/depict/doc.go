// Package depict translates datablocks into renderer-agnostic layer
// descriptors and keeps a viewer in sync with the blocks it shows.
//
// # Layers
//
// A [Layer] is a kind from a closed set (points, vectors, image, shapes,
// surface), its data in zyx order, and display attributes such as the scale
// derived from the block's pixel size. Blocks store coordinates as xyz; the
// conversion with [ToZYX] and [FromZYX] happens in this package only.
//
// # Adapters
//
// Each block kind is depicted by an [Adapter] found in a [Registry] once, when
// the depictor is created. [DefaultRegistry] covers points, lines, particles,
// oriented points, meshes, dipoles and images.
//
// # Lifecycle
//
// A [Depictor] moves between three states:
//
//	unrendered --Depict--> rendered --Purge--> purged --Depict--> rendered
//
// Depict on a rendered depictor updates the existing layers. While rendered,
// the depictor follows the block's identity: any Update of the block refreshes
// the layers. Edits made in the viewer arrive through [Depictor.Changed], are
// written into the block by the adapter and then pushed back to every layer.
//
// [Manager] holds at most one live depictor per block.
package depict
