// Package msci is the excitation-generation and linear-algebra core of a
// selected-CI electronic-structure solver.
//
// Given a Slater determinant, it enumerates the basis states reachable by
// symmetry-allowed single and double excitations whose coupling magnitude
// falls in a requested window, driven by a precomputed magnitude-sorted
// heat-bath queue, and it solves complex-shifted linear systems over an
// extended determinant basis to produce a matrix-valued response (Green's)
// function.
//
// # Quick start
//
//	cfg := config.New(map[string]any{"n_up": 1, "n_dn": 1})
//	sys := msci.New(cfg)
//	if err := sys.Setup(ctx, src); err != nil { ... }
//
//	sys.ForEachConnected(sys.HFDet(), 1e-6, math.Inf(1), func(d det.Det, elem float64) {
//	    // one connected determinant and its matrix element
//	})
//
//	resp, err := sys.RunGreen(ctx, eVar, nil)
//
// Integral loading, point-group table construction, and Hamiltonian
// assembly are collaborators behind interfaces; the core consumes them
// read-only. On multi-rank runs the coordinator builds the integral table
// and the excitation queue once and replicates both through the execution
// context's transport before any other rank reads them.
package msci
