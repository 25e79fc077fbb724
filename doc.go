// Package atomstore provides a dynamically growable, columnar container for
// atomic-structure records.
//
// A Storage holds many structures (atom positions, chemical species, periodic
// cell, boundary conditions, optional spins) plus arbitrary user-defined
// per-structure and per-atom arrays. All data lives in contiguous typed
// buffers with two independently sized dimensions: the number of structures
// and the total number of atoms. Each stored structure owns a contiguous
// atom range inside the per-atom buffers, laid out in insertion order.
//
// The container is append-only: structures are never deleted or reordered.
// Writes are single-threaded; reads are safe to perform concurrently with
// each other once ingestion has finished, but not concurrently with writes.
//
// Containers serialize losslessly to a hierarchical key/value form (see
// ToHDF/FromHDF and the hdfio package), including dynamically registered
// arrays.
package atomstore
