// Package det models many-electron basis states (Slater determinants) as a
// pair of fixed-width occupation bit-vectors, one per spin channel.
//
// A HalfDet records which spatial orbitals are occupied by electrons of one
// spin. A Det bundles the up and down halves. Determinants compare with a
// total lexicographic order on (up, down), which the time-reversal machinery
// relies on for canonicalization, and expose a symmetric-difference operation
// used to classify excitation degree between two states.
package det
