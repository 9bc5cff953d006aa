package green

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Response is the assembled Green's-function matrix of one evaluation,
// indexed by spin-orbital (up orbitals first, then down).
type Response struct {
	nOrbs uint32
	omega float64
	eta   float64
	g     *mat.CDense
}

// NOrbs returns the number of spatial orbitals; the matrix is 2*NOrbs
// square.
func (r *Response) NOrbs() uint32 { return r.nOrbs }

// At returns G[i][j].
func (r *Response) At(i, j int) complex128 { return r.g.At(i, j) }

// Matrix returns the underlying dense matrix.
func (r *Response) Matrix() *mat.CDense { return r.g }

// Filename returns the deterministic artifact name for this evaluation's
// frequency and broadening.
func (r *Response) Filename() string {
	return fmt.Sprintf("green_%#.2e_%#.2ei.csv", r.omega, r.eta)
}

// WriteCSV writes the matrix as delimited text: a header line, then one
// line per (i, j) pair with the complex value as a signed pair.
func (r *Response) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "i,j,G"); err != nil {
		return err
	}
	n := int(2 * r.nOrbs)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := r.g.At(i, j)
			if _, err := fmt.Fprintf(bw, "%d,%d,%g%+gj\n", i, j, real(v), imag(v)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Save writes the CSV artifact into dir under the deterministic name and
// returns the full path.
func (r *Response) Save(dir string) (string, error) {
	path := filepath.Join(dir, r.Filename())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("green: create artifact: %w", err)
	}
	defer f.Close()
	if err := r.WriteCSV(f); err != nil {
		return "", fmt.Errorf("green: write artifact: %w", err)
	}
	return path, nil
}
