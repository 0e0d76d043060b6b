package fabmap

import "gonum.org/v1/gonum/mat"

// tree wraps the Chow-Liu tree table: a 4-row, V-column
// matrix. Row 0 holds the parent word index (q itself at the root). Row 1
// holds the marginal P(z_q=true). Row 2 holds P(z_q=true|z_p(q)=true). Row
// 3 holds P(z_q=true|z_p(q)=false). Rows 1-3 are strictly in (0,1).
type tree struct {
	table     *mat.Dense
	vocabSize int
	pzGe      float64
	pzGNe     float64
}

func newTree(clTree *mat.Dense, pzGe, pzGNe float64) (*tree, error) {
	if clTree == nil {
		return nil, ErrInvalidTree
	}
	rows, cols := clTree.Dims()
	if rows != 4 || cols <= 0 {
		return nil, ErrInvalidTree
	}
	return &tree{table: clTree, vocabSize: cols, pzGe: pzGe, pzGNe: pzGNe}, nil
}

// parent returns p(q), the index of q's parent word in the tree.
func (t *tree) parent(q int) int {
	return int(t.table.At(0, q))
}

// pZ returns P(z_q = v).
func (t *tree) pZ(q int, v bool) float64 {
	p := t.table.At(1, q)
	if v {
		return p
	}
	return 1 - p
}

// pZgivenParent returns P(z_q = zq | z_p(q) = zpq).
func (t *tree) pZgivenParent(q int, zq, zpq bool) float64 {
	var p float64
	if zpq {
		p = t.table.At(2, q)
	} else {
		p = t.table.At(3, q)
	}
	if zq {
		return p
	}
	return 1 - p
}

// pZgivenE is the detector model, P(z_q = zq | e_q = eq).
func (t *tree) pZgivenE(zq, eq bool) float64 {
	if eq {
		if zq {
			return t.pzGe
		}
		return 1 - t.pzGe
	}
	if zq {
		return t.pzGNe
	}
	return 1 - t.pzGNe
}

// pEgivenL returns P(e_q = eq | L_{z_q} = Lzq), the posterior on latent
// existence derived by Bayes from the detector model and P(e_q), which is
// identified with P(z_q) (row 1 of the tree) under the data-association
// assumption that places are never updated after insertion.
func (t *tree) pEgivenL(q int, Lzq, eq bool) float64 {
	alpha := t.pZgivenE(Lzq, true) * t.pZ(q, true)
	beta := t.pZgivenE(Lzq, false) * t.pZ(q, false)
	if eq {
		return alpha / (alpha + beta)
	}
	return 1 - alpha/(alpha+beta)
}

// kernelFunc computes P(z_q = zq | z_p(q) = zpq, L_{z_q} = Lzq) (or, for the
// naive-Bayes kernel, P(z_q = zq | L_{z_q} = Lzq) ignoring zpq) under one of
// the two probabilistic models FabMap can be built with. It is chosen once
// at construction rather than dispatched via a method pointer on every call.
type kernelFunc func(q int, zq, zpq, Lzq bool) float64

// naiveBayesKernel computes P(z_q|L_{z_q}) by marginalizing e_q using
// pEgivenL; it ignores the tree structure entirely.
func (t *tree) naiveBayesKernel(q int, zq, zpq, Lzq bool) float64 {
	return t.pEgivenL(q, Lzq, false)*t.pZgivenE(zq, false) +
		t.pEgivenL(q, Lzq, true)*t.pZgivenE(zq, true)
}

// chowLiuKernel computes P(z_q|z_p(q), L_{z_q}): for each value of e_q it
// weights a combination respecting both the tree edge and the detector
// model, then sums over e_q weighted by its posterior given L.
func (t *tree) chowLiuKernel(q int, zq, zpq, Lzq bool) float64 {
	var p float64

	alpha := t.pZ(q, zq) * t.pZgivenE(!zq, false) * t.pZgivenParent(q, !zq, zpq)
	beta := t.pZ(q, !zq) * t.pZgivenE(zq, false) * t.pZgivenParent(q, zq, zpq)
	p = t.pEgivenL(q, Lzq, false) * beta / (alpha + beta)

	alpha = t.pZ(q, zq) * t.pZgivenE(!zq, true) * t.pZgivenParent(q, !zq, zpq)
	beta = t.pZ(q, !zq) * t.pZgivenE(zq, true) * t.pZgivenParent(q, zq, zpq)
	p += t.pEgivenL(q, Lzq, true) * beta / (alpha + beta)

	return p
}

// kernel picks the kernel selected by flags, once.
func (t *tree) kernel(flags Flags) kernelFunc {
	if flags.has(ChowLiu) {
		return t.chowLiuKernel
	}
	return t.naiveBayesKernel
}
