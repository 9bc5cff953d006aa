// Package symmetry provides the point-group symmetry surface used to prune
// excitations: per-orbital irreducible-representation labels, the irrep
// product operation, and fast per-irrep orbital sets.
//
// Irrep labels are 1-based, following the integral-file convention. Point
// groups with inversion-dependent irrep products (linear/dihedral groups)
// are rejected at table construction with ErrUnsupportedPointGroup rather
// than producing silently wrong products.
package symmetry
