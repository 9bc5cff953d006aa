package hci

import (
	"fmt"
	"sort"

	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/integrals"
	"github.com/jl2922/msci/symmetry"
)

// Hrs is one excitation-queue entry: the coupling magnitude of the double
// excitation into destination spin-orbitals (R, S).
type Hrs struct {
	H float64
	R uint32
	S uint32
}

// Queue is the heat-bath excitation queue. Buckets are keyed by the
// triangular index of the unordered origin spin-orbital pair; entries within
// a bucket are sorted by descending coupling magnitude. Immutable after
// BuildQueue, safe for concurrent readers.
type Queue struct {
	nOrbs    uint32
	buckets  [][]Hrs
	maxElem  float64
	nEntries uint64
}

// BuildQueue precomputes the symmetry-allowed destination pairs for every
// unordered origin spin-orbital pair, sorted descending by coupling
// magnitude. Degenerate index combinations are physically impossible
// excitations and are filtered silently.
func BuildQueue(tbl *symmetry.Table, src integrals.Source) (*Queue, error) {
	if tbl.Group() == symmetry.Dooh {
		return nil, &symmetry.ErrUnsupportedPointGroup{Group: tbl.Group()}
	}
	nOrbs := src.NOrbs()
	if tbl.NOrbs() != nOrbs {
		return nil, fmt.Errorf("hci: symmetry table covers %d orbitals, integrals have %d", tbl.NOrbs(), nOrbs)
	}

	q := &Queue{
		nOrbs:   nOrbs,
		buckets: make([][]Hrs, integrals.Combine2(uint64(nOrbs), uint64(2*nOrbs))),
	}

	// Same spin. Destination pairs require s >= r so an unordered pair is
	// counted once.
	for p := uint32(0); p < nOrbs; p++ {
		symP := tbl.OrbSym(p)
		for qq := p + 1; qq < nOrbs; qq++ {
			pq := integrals.Combine2(uint64(p), uint64(qq))
			symPQ := tbl.Product(symP, tbl.OrbSym(qq))
			for r := uint32(0); r < nOrbs; r++ {
				symR := tbl.Product(symPQ, tbl.OrbSym(r))
				for _, s := range tbl.OrbitalsWithSym(symR) {
					if s < r {
						continue
					}
					h := queueElem(src, nOrbs, p, qq, r, s)
					if h == 0.0 {
						continue
					}
					q.buckets[pq] = append(q.buckets[pq], Hrs{H: h, R: r, S: s})
				}
			}
			q.finishBucket(pq)
		}
	}

	// Opposite spin. Up/down roles are distinguishable, so no s >= r
	// constraint; destinations carry the down-spin offset.
	for p := uint32(0); p < nOrbs; p++ {
		symP := tbl.OrbSym(p)
		for qq := nOrbs + p; qq < 2*nOrbs; qq++ {
			pq := integrals.Combine2(uint64(p), uint64(qq))
			symPQ := tbl.Product(symP, tbl.OrbSym(qq-nOrbs))
			for r := uint32(0); r < nOrbs; r++ {
				symR := tbl.Product(symPQ, tbl.OrbSym(r))
				for _, s := range tbl.OrbitalsWithSym(symR) {
					h := queueElem(src, nOrbs, p, qq, r, s+nOrbs)
					if h == 0.0 {
						continue
					}
					q.buckets[pq] = append(q.buckets[pq], Hrs{H: h, R: r, S: s + nOrbs})
				}
			}
			q.finishBucket(pq)
		}
	}

	return q, nil
}

func (q *Queue) finishBucket(pq uint64) {
	bucket := q.buckets[pq]
	if len(bucket) == 0 {
		return
	}
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].H > bucket[j].H
	})
	q.nEntries += uint64(len(bucket))
	if bucket[0].H > q.maxElem {
		q.maxElem = bucket[0].H
	}
}

// queueElem returns the coupling magnitude of the double excitation
// p,q -> r,s over combined spin-orbital indices. Any degenerate index
// collision is an impossible excitation and yields zero.
func queueElem(src integrals.Source, nOrbs uint32, p, q, r, s uint32) float64 {
	if p == q || r == s || p == r || q == s || p == s || q == r {
		return 0.0
	}
	detPQ := det.New(nOrbs)
	detRS := det.New(nOrbs)
	switch {
	case p < nOrbs && q < nOrbs:
		detPQ.Up.Set(p)
		detPQ.Up.Set(q)
		detRS.Up.Set(r)
		detRS.Up.Set(s)
	case p < nOrbs && q >= nOrbs:
		detPQ.Up.Set(p)
		detPQ.Dn.Set(q - nOrbs)
		detRS.Up.Set(r)
		detRS.Dn.Set(s - nOrbs)
	default:
		// Origin pairs always come in as (up, up) or (up, down+offset).
		panic(fmt.Sprintf("hci: origin pair (%d,%d) crosses the spin partition", p, q))
	}
	h := twoBodyDouble(src, detPQ, detRS)
	if h < 0 {
		h = -h
	}
	return h
}

// NOrbs returns the number of spatial orbitals the queue covers.
func (q *Queue) NOrbs() uint32 { return q.nOrbs }

// MaxAbs returns the single largest coupling magnitude across all buckets.
// Callers use it to bound the worst-case coupling of any double excitation.
func (q *Queue) MaxAbs() float64 { return q.maxElem }

// NumEntries returns the total entry count across all buckets.
func (q *Queue) NumEntries() uint64 { return q.nEntries }

// Bucket returns the sorted entries for the unordered origin spin-orbital
// pair (p, q). The returned slice is shared and must not be modified.
func (q *Queue) Bucket(p, qq uint32) []Hrs {
	return q.buckets[integrals.Combine2(uint64(p), uint64(qq))]
}
