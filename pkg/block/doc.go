// Package block provides the typed data containers ("datablocks") that blik
// composes into particles, meshes and dipoles.
//
// # Overview
//
// A datablock wraps one array-like value with validation and named access.
// Simple blocks hold a single array:
//
//   - [PointBlock]: n points in d ≥ 3 dimensions (the last three are spatial)
//   - [OrientationBlock]: n 3×3 rotation matrices
//   - [PropertyBlock]: n rows of named scalar columns
//   - [LineBlock]: an ordered polyline of vertices
//   - [ImageBlock]: an n-dimensional voxel array, optionally loaded lazily
//
// Composite blocks aggregate several simple blocks under one identity:
//
//   - [ParticleBlock]: positions + orientations + properties
//   - [OrientedPointBlock]: positions + orientations
//   - [MeshBlock]: vertices + triangle faces
//   - [DipoleBlock]: start points + end points
//   - [TransformBlock]: per-row rigid transforms applicable to particles
//
// # Identity
//
// Every block holds a pointer to an [Identity]: the one authoritative record of
// name, volume tag, source path and [Spatial] attributes for a composite chain.
// Sub-blocks of a composite and every view derived from it share the same
// *Identity, so setting the volume through any of them changes it for all:
//
//	p, _ := block.NewParticleBlock(block.ParticleOptions{PositionsData: coords})
//	sub, _ := p.Slice(block.Range{Start: 0, Stop: 10})
//	sub.Identity().SetVolume("TS_01")
//	fmt.Println(p.Volume()) // TS_01
//
// Data, unlike identity, may be duplicated freely: slicing by index or mask
// copies rows into the view, while [PointBlock.View] aliases the owner's array.
//
// # Views
//
// Results of Slice and View are views. Views may edit values in place but reject
// operations that would change the owner's structure (Append, size-changing
// SetData) with an [errors.ImmutableViewError].
//
// # Updates
//
// Observers subscribe on the Identity. [Identity.Notify] calls each observer
// once; composites batch their sub-block changes so that one composite-level
// change produces exactly one notification.
//
// # Concurrency
//
// Blocks are not safe for concurrent use. They are designed for a single
// event-loop driven owner.
//
// [errors.ImmutableViewError]: github.com/matzehuels/blik/pkg/errors.ImmutableViewError
package block
