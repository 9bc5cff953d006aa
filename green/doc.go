// Package green computes a matrix-valued response (Green's) function by
// solving complex-shifted linear systems over an extended determinant
// basis.
//
// The extended basis is built from the caller's primary determinants by
// single-orbital electron insertion. For every spin-orbital j a right-hand
// side is assembled from the primary coefficients, the shifted system
// (H - z) x = b_j is solved by conjugate gradient on the complex-symmetric
// operator (unconjugated inner products), and the response entries
// G[i][j] = <b_i, x_j> fill a dense 2n x 2n complex matrix.
package green
