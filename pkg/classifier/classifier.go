package classifier

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/absmach/baseliner/model"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

// Classifier trains on a feature matrix and assigns class indices to rows.
type Classifier interface {
	// Fit learns the model parameters from the training split. The context
	// bounds the training loop and Fit returns its error when cancelled.
	Fit(ctx context.Context, x *mat.Dense, y []int) error

	// Predict returns the class index for every row of x. It must be
	// called after a successful Fit.
	Predict(x *mat.Dense) []int
}

// Options tune a classifier for a single training run.
type Options struct {
	// Classes is the number of target classes.
	Classes int

	// ClassWeights holds a per-class sample weight, indexed by class.
	// A nil slice means uniform weights.
	ClassWeights []float64

	// Seed drives every randomized step so runs are reproducible.
	Seed int64
}

// New builds the classifier registered under name.
func New(name string, opts Options) (Classifier, error) {
	switch name {
	case model.LogisticRegression:
		return newLogistic(opts), nil
	case model.RandomForest:
		return newForest(opts), nil
	case model.GradientBoosting:
		return newBoosting(opts), nil
	default:
		return nil, pkgerrors.ErrUnknownModel
	}
}

func (o Options) weight(class int) float64 {
	if class < 0 || class >= len(o.ClassWeights) {
		return 1
	}

	return o.ClassWeights[class]
}
