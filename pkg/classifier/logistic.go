package classifier

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	logisticEpochs = 300
	logisticRate   = 0.1
	logisticL2     = 1e-4
)

// logistic is a multinomial logistic regression trained with full-batch
// gradient descent on the softmax cross-entropy loss.
type logistic struct {
	opts    Options
	weights *mat.Dense
	bias    []float64
}

func newLogistic(opts Options) *logistic {
	return &logistic{opts: opts}
}

func (l *logistic) Fit(ctx context.Context, x *mat.Dense, y []int) error {
	n, d := x.Dims()
	k := l.opts.Classes
	l.weights = mat.NewDense(k, d, nil)
	l.bias = make([]float64, k)

	probs := make([]float64, k)
	gradW := mat.NewDense(k, d, nil)
	gradB := make([]float64, k)
	row := make([]float64, d)

	for epoch := 0; epoch < logisticEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		gradW.Zero()
		for c := range gradB {
			gradB[c] = 0
		}

		for i := 0; i < n; i++ {
			mat.Row(row, i, x)
			l.scores(row, probs)
			softmax(probs)

			w := l.opts.weight(y[i]) / float64(n)
			for c := 0; c < k; c++ {
				g := probs[c]
				if c == y[i] {
					g--
				}
				g *= w
				gradB[c] += g
				for j := 0; j < d; j++ {
					gradW.Set(c, j, gradW.At(c, j)+g*row[j])
				}
			}
		}

		for c := 0; c < k; c++ {
			l.bias[c] -= logisticRate * gradB[c]
			for j := 0; j < d; j++ {
				step := gradW.At(c, j) + logisticL2*l.weights.At(c, j)
				l.weights.Set(c, j, l.weights.At(c, j)-logisticRate*step)
			}
		}
	}

	return nil
}

func (l *logistic) Predict(x *mat.Dense) []int {
	n, d := x.Dims()
	out := make([]int, n)
	row := make([]float64, d)
	scores := make([]float64, l.opts.Classes)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		l.scores(row, scores)
		out[i] = argmax(scores)
	}

	return out
}

func (l *logistic) scores(row, out []float64) {
	for c := range out {
		s := l.bias[c]
		for j, v := range row {
			s += l.weights.At(c, j) * v
		}
		out[c] = s
	}
}

// softmax normalizes scores in place, shifting by the max for stability.
func softmax(scores []float64) {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	for c, s := range scores {
		e := math.Exp(s - max)
		scores[c] = e
		sum += e
	}
	for c := range scores {
		scores[c] /= sum
	}
}

func argmax(scores []float64) int {
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}

	return best
}
