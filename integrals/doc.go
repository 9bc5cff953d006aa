// Package integrals defines the read-only integral/basis collaborator the
// excitation and solver machinery consumes: orbital counts, per-orbital
// irrep labels, the reference determinant, and one-/two-body matrix-element
// lookup.
//
// Loading integral files from disk is outside this module; Table is an
// in-memory Source suitable for tests and for replicating a coordinator's
// loaded integrals to other ranks via its binary snapshot.
package integrals
