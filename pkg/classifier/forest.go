package classifier

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	forestTrees    = 100
	forestMaxDepth = 10
	forestMinLeaf  = 1
)

// forest is a random forest of CART trees, each grown on a bootstrap
// sample with sqrt(features) split candidates per node.
type forest struct {
	opts  Options
	trees []*treeNode
}

func newForest(opts Options) *forest {
	return &forest{opts: opts}
}

func (f *forest) Fit(ctx context.Context, x *mat.Dense, y []int) error {
	n, d := x.Dims()
	mtry := int(math.Sqrt(float64(d)))
	if mtry < 1 {
		mtry = 1
	}
	rng := rand.New(rand.NewSource(f.opts.Seed))
	cfg := treeConfig{
		maxDepth: forestMaxDepth,
		minLeaf:  forestMinLeaf,
		mtry:     mtry,
		classes:  f.opts.Classes,
		weight:   f.opts.weight,
		rng:      rng,
	}

	f.trees = make([]*treeNode, 0, forestTrees)
	rows := make([]int, n)
	for t := 0; t < forestTrees; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for i := range rows {
			rows[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, growTree(x, y, rows, cfg, 0))
	}

	return nil
}

func (f *forest) Predict(x *mat.Dense) []int {
	n, d := x.Dims()
	out := make([]int, n)
	row := make([]float64, d)
	votes := make([]float64, f.opts.Classes)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		for c := range votes {
			votes[c] = 0
		}
		for _, t := range f.trees {
			votes[t.predict(row)]++
		}
		out[i] = argmax(votes)
	}

	return out
}
