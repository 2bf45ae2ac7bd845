package classifier_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/absmach/baseliner/model"
	"github.com/absmach/baseliner/pkg/classifier"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

// binaryClusters builds two well separated clusters of 20 points each, so
// every catalog model must reach perfect training accuracy.
func binaryClusters() (*mat.Dense, []int) {
	x := mat.NewDense(40, 2, nil)
	y := make([]int, 40)
	for i := 0; i < 20; i++ {
		j := float64(i%5) * 0.1
		x.Set(i, 0, -2+j)
		x.Set(i, 1, -2-j)
		x.Set(20+i, 0, 2-j)
		x.Set(20+i, 1, 2+j)
		y[20+i] = 1
	}

	return x, y
}

// multiClusters builds three clusters arranged so each one-vs-rest
// problem is separable by a single threshold on one feature.
func multiClusters() (*mat.Dense, []int) {
	centers := [][2]float64{{-4, 0}, {0, 4}, {4, 0}}
	x := mat.NewDense(45, 2, nil)
	y := make([]int, 45)
	for c := 0; c < 3; c++ {
		for i := 0; i < 15; i++ {
			r := c*15 + i
			j := float64(i%5)*0.2 - 0.4
			x.Set(r, 0, centers[c][0]+j)
			x.Set(r, 1, centers[c][1]-j)
			y[r] = c
		}
	}

	return x, y
}

func TestNew_UnknownModel(t *testing.T) {
	c, err := classifier.New("quantum_svm", classifier.Options{Classes: 2})

	assert.Nil(t, c)
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownModel)
}

func TestClassifiers_SeparableBinary(t *testing.T) {
	x, y := binaryClusters()
	holdout := mat.NewDense(4, 2, []float64{
		-2.05, -2.1,
		-1.75, -2.3,
		2.05, 2.1,
		1.75, 2.3,
	})
	want := []int{0, 0, 1, 1}

	for _, name := range model.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := classifier.New(name, classifier.Options{Classes: 2, Seed: 7})
			require.NoError(t, err)
			require.NoError(t, c.Fit(context.Background(), x, y))

			assert.Equal(t, y, c.Predict(x), "training clusters are fully separable")
			assert.Equal(t, want, c.Predict(holdout))
		})
	}
}

func TestClassifiers_SeparableMulticlass(t *testing.T) {
	x, y := multiClusters()
	holdout := mat.NewDense(3, 2, []float64{
		-4.1, 0.1,
		0.1, 4.1,
		4.1, -0.1,
	})
	want := []int{0, 1, 2}

	for _, name := range model.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := classifier.New(name, classifier.Options{Classes: 3, Seed: 7})
			require.NoError(t, err)
			require.NoError(t, c.Fit(context.Background(), x, y))

			assert.Equal(t, y, c.Predict(x))
			assert.Equal(t, want, c.Predict(holdout))
		})
	}
}

func TestClassifiers_CancelledContext(t *testing.T) {
	x, y := binaryClusters()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, name := range model.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := classifier.New(name, classifier.Options{Classes: 2, Seed: 7})
			require.NoError(t, err)

			assert.ErrorIs(t, c.Fit(ctx, x, y), context.Canceled)
		})
	}
}

func TestForest_DeterministicWithSeed(t *testing.T) {
	x, y := multiClusters()

	first, err := classifier.New(model.RandomForest, classifier.Options{Classes: 3, Seed: 42})
	require.NoError(t, err)
	require.NoError(t, first.Fit(context.Background(), x, y))

	second, err := classifier.New(model.RandomForest, classifier.Options{Classes: 3, Seed: 42})
	require.NoError(t, err)
	require.NoError(t, second.Fit(context.Background(), x, y))

	assert.Equal(t, first.Predict(x), second.Predict(x), "same seed grows the same forest")
}

func TestClassifiers_ClassWeightsTipMajority(t *testing.T) {
	// Constant features leave the models nothing to split or regress on,
	// so predictions collapse to the weighted majority class.
	x := mat.NewDense(16, 1, nil)
	y := make([]int, 16)
	for i := 12; i < 16; i++ {
		y[i] = 1
	}
	zeros := make([]int, 16)
	ones := make([]int, 16)
	for i := range ones {
		ones[i] = 1
	}

	for _, name := range []string{model.LogisticRegression, model.RandomForest} {
		t.Run(name, func(t *testing.T) {
			unweighted, err := classifier.New(name, classifier.Options{Classes: 2, Seed: 11})
			require.NoError(t, err)
			require.NoError(t, unweighted.Fit(context.Background(), x, y))
			assert.Equal(t, zeros, unweighted.Predict(x))

			weighted, err := classifier.New(name, classifier.Options{Classes: 2, ClassWeights: []float64{1, 10}, Seed: 11})
			require.NoError(t, err)
			require.NoError(t, weighted.Fit(context.Background(), x, y))
			assert.Equal(t, ones, weighted.Predict(x), "upweighted minority class wins the vote")
		})
	}
}
