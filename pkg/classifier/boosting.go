package classifier

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	boostingRounds    = 100
	boostingShrinkage = 0.1
)

// stump is a depth-one regression tree used as the boosting weak learner.
// A negative feature marks a constant stump that returns left everywhere.
type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
}

func (s stump) at(x *mat.Dense, i int) float64 {
	if s.feature >= 0 && x.At(i, s.feature) > s.threshold {
		return s.right
	}

	return s.left
}

func (s stump) eval(row []float64) float64 {
	if s.feature >= 0 && row[s.feature] > s.threshold {
		return s.right
	}

	return s.left
}

// boosting fits one gradient-boosted stump ensemble per class against the
// rest, each round fitting a stump to the logistic loss gradient and
// adding it with a fixed shrinkage.
type boosting struct {
	opts   Options
	base   []float64
	stumps [][]stump
}

func newBoosting(opts Options) *boosting {
	return &boosting{opts: opts}
}

func (b *boosting) Fit(ctx context.Context, x *mat.Dense, y []int) error {
	n, _ := x.Dims()
	k := b.opts.Classes
	b.base = make([]float64, k)
	b.stumps = make([][]stump, k)

	target := make([]float64, n)
	score := make([]float64, n)
	residual := make([]float64, n)

	for c := 0; c < k; c++ {
		var pos float64
		for i, cls := range y {
			if cls == c {
				target[i] = 1
				pos++
			} else {
				target[i] = 0
			}
		}
		p := clamp(pos/float64(n), 1e-6, 1-1e-6)
		b.base[c] = math.Log(p / (1 - p))
		for i := range score {
			score[i] = b.base[c]
		}

		rounds := make([]stump, 0, boostingRounds)
		for m := 0; m < boostingRounds; m++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			for i := range residual {
				residual[i] = target[i] - sigmoid(score[i])
			}
			s := fitStump(x, residual)
			rounds = append(rounds, s)
			for i := range score {
				score[i] += boostingShrinkage * s.at(x, i)
			}
		}
		b.stumps[c] = rounds
	}

	return nil
}

func (b *boosting) Predict(x *mat.Dense) []int {
	n, d := x.Dims()
	out := make([]int, n)
	row := make([]float64, d)
	scores := make([]float64, b.opts.Classes)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		for c := range scores {
			scores[c] = b.base[c]
			for _, s := range b.stumps[c] {
				scores[c] += boostingShrinkage * s.eval(row)
			}
		}
		out[i] = argmax(scores)
	}

	return out
}

// fitStump returns the single threshold split minimizing the residual sum
// of squares, found with a sorted sweep over every feature.
func fitStump(x *mat.Dense, residual []float64) stump {
	n, d := x.Dims()
	var sum, sumSq float64
	for _, r := range residual {
		sum += r
		sumSq += r * r
	}
	mean := sum / float64(n)

	best := stump{feature: -1, left: mean, right: mean}
	bestScore := math.Inf(1)
	order := make([]int, n)

	for f := 0; f < d; f++ {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool { return x.At(order[i], f) < x.At(order[j], f) })

		var sumL, sqL float64
		sumR, sqR := sum, sumSq
		for i := 0; i < n-1; i++ {
			r := residual[order[i]]
			sumL += r
			sqL += r * r
			sumR -= r
			sqR -= r * r

			v, next := x.At(order[i], f), x.At(order[i+1], f)
			if v == next {
				continue
			}

			nL, nR := float64(i+1), float64(n-i-1)
			score := (sqL - sumL*sumL/nL) + (sqR - sumR*sumR/nR)
			if score < bestScore {
				bestScore = score
				best = stump{feature: f, threshold: (v + next) / 2, left: sumL / nL, right: sumR / nR}
			}
		}
	}

	return best
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
