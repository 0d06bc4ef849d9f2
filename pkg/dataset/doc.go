// Package dataset provides [DataSet], the ordered container of top-level
// datablocks that blik loads, groups into volumes and depicts.
//
// # Membership
//
// [DataSet.Append] and [DataSet.Extend] accept any [block.Block] of a known
// kind. Blocks that match an existing member on kind, name and source path are
// dropped silently, and the members are kept sorted by name so iteration and
// printing are deterministic.
//
// # Selection
//
// [DataSet.Get] takes any number of selectors and returns the union of their
// matches, in order, as a view:
//
//	tomo, err := ds.Get(dataset.Volume("TS_01"))
//	firstTwo, err := ds.Get(dataset.Range{Stop: 2})
//
// A selection that matches nothing returns an [errors.NotFoundError]. Views
// share the member blocks with their owner and reject Append and Extend.
//
// # Volumes
//
// Blocks are grouped by their volume tag. An untagged block forms a group of
// its own, keyed by its identity's UUID, so two untagged blocks are never
// merged. Blocks tagged [block.OmniVolume] are hidden from [DataSet.Volumes]
// and added to every volume returned by [DataSet.Show].
//
// # Printing
//
// [DataSet.Format] renders the container in one of the [Mode] layouts. The
// compact modes show at most six entries: the first three, a "[...]" marker
// and the last three.
package dataset
