// Package hci implements the heat-bath excitation machinery: a precomputed,
// magnitude-sorted queue of double-excitation couplings keyed by origin
// spin-orbital pair, a Slater-Condon Hamiltonian matrix-element evaluator,
// and the connected-determinant enumerator that consumes both.
//
// The queue's load-bearing invariant is descending coupling magnitude
// within each bucket: a consumer stops scanning a bucket as soon as the
// running magnitude drops below its screening threshold, so enumeration
// cost tracks the number of admitted excitations instead of the number of
// possible ones. The queue is built once, serially, before any reader
// touches it, and is shared read-only afterwards.
//
// Spin-orbital indices are combined: up-spin orbital i is index i, down-spin
// orbital i is index nOrbs+i.
package hci
