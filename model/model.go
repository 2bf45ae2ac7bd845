package model

import (
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
)

const (
	LogisticRegression = "logistic_regression"
	RandomForest       = "random_forest"
	GradientBoosting   = "gradient_boosting"
)

// Spec describes one baseline classifier the platform knows how to train.
// Weight is the relative training cost used by the runtime estimator.
type Spec struct {
	Name                string  `json:"name"`
	DisplayName         string  `json:"display_name"`
	Weight              float64 `json:"weight"`
	SupportsClassWeight bool    `json:"supports_class_weight"`
	ScalingSensitive    bool    `json:"scaling_sensitive"`
}

var catalog = []Spec{
	{Name: LogisticRegression, DisplayName: "Logistic Regression", Weight: 1.0, SupportsClassWeight: true, ScalingSensitive: true},
	{Name: RandomForest, DisplayName: "Random Forest", Weight: 3.0, SupportsClassWeight: true, ScalingSensitive: false},
	{Name: GradientBoosting, DisplayName: "Gradient Boosting", Weight: 4.0, SupportsClassWeight: false, ScalingSensitive: false},
}

// Catalog returns the fixed model catalog in canonical order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)

	return out
}

func Lookup(name string) (Spec, error) {
	for _, s := range catalog {
		if s.Name == name {
			return s, nil
		}
	}

	return Spec{}, pkgerrors.ErrUnknownModel
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, s := range catalog {
		names = append(names, s.Name)
	}

	return names
}

// MaxWeight returns the heaviest catalog cost weight. The estimator falls
// back to it for names it does not recognize.
func MaxWeight() float64 {
	var w float64
	for _, s := range catalog {
		if s.Weight > w {
			w = s.Weight
		}
	}

	return w
}
