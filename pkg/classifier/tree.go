package classifier

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a CART tree. Leaves carry the majority class,
// inner nodes route rows by a single threshold split.
type treeNode struct {
	left      *treeNode
	right     *treeNode
	feature   int
	threshold float64
	class     int
}

type treeConfig struct {
	maxDepth int
	minLeaf  int
	mtry     int
	classes  int
	weight   func(int) float64
	rng      *rand.Rand
}

// growTree builds a CART tree on the given rows, choosing at each node the
// threshold split with the lowest weighted Gini impurity of the children.
func growTree(x *mat.Dense, y []int, rows []int, cfg treeConfig, depth int) *treeNode {
	node := &treeNode{feature: -1, class: majorityClass(y, rows, cfg)}
	if depth >= cfg.maxDepth || len(rows) < 2*cfg.minLeaf || pureRows(y, rows) {
		return node
	}

	feature, threshold, ok := bestGiniSplit(x, y, rows, cfg)
	if !ok {
		return node
	}

	var left, right []int
	for _, r := range rows {
		if x.At(r, feature) <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = growTree(x, y, left, cfg, depth+1)
	node.right = growTree(x, y, right, cfg, depth+1)

	return node
}

func (n *treeNode) predict(row []float64) int {
	for n.feature >= 0 {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}

	return n.class
}

func majorityClass(y []int, rows []int, cfg treeConfig) int {
	counts := make([]float64, cfg.classes)
	for _, r := range rows {
		counts[y[r]] += cfg.weight(y[r])
	}

	return argmax(counts)
}

func pureRows(y []int, rows []int) bool {
	for _, r := range rows[1:] {
		if y[r] != y[rows[0]] {
			return false
		}
	}

	return true
}

// bestGiniSplit sweeps the candidate features in sorted order, keeping
// running class-weight counts on both sides of the split.
func bestGiniSplit(x *mat.Dense, y []int, rows []int, cfg treeConfig) (int, float64, bool) {
	_, d := x.Dims()
	features := cfg.rng.Perm(d)
	if cfg.mtry > 0 && cfg.mtry < d {
		features = features[:cfg.mtry]
	}

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	order := make([]int, len(rows))

	for _, f := range features {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool { return x.At(order[i], f) < x.At(order[j], f) })

		leftCount := make([]float64, cfg.classes)
		rightCount := make([]float64, cfg.classes)
		var leftTotal, rightTotal float64
		for _, r := range order {
			rightCount[y[r]] += cfg.weight(y[r])
			rightTotal += cfg.weight(y[r])
		}

		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			w := cfg.weight(y[r])
			leftCount[y[r]] += w
			leftTotal += w
			rightCount[y[r]] -= w
			rightTotal -= w

			v, next := x.At(r, f), x.At(order[i+1], f)
			if v == next {
				continue
			}

			score := (leftTotal*gini(leftCount, leftTotal) + rightTotal*gini(rightCount, rightTotal)) / (leftTotal + rightTotal)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}

	return impurity
}
