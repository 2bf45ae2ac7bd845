package estimator

import (
	"math"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/model"
)

const (
	bucketFast   = "< 1 min"
	bucketMedium = "1-5 min"
	bucketSlow   = "5-15 min"

	mediumThreshold = 100
	slowThreshold   = 500
)

// Estimate is a coarse, explainable wall-clock forecast: buckets, never
// predictions.
type Estimate struct {
	Overall  string          `json:"overall_estimate"`
	PerModel []ModelEstimate `json:"per_model"`
	Factors  Factors         `json:"complexity_factors"`
}

type ModelEstimate struct {
	Model      string  `json:"model"`
	Complexity float64 `json:"complexity_score"`
	Runtime    string  `json:"estimated_runtime"`
}

type Factors struct {
	Rows         uint64  `json:"n_rows"`
	Columns      uint64  `json:"n_cols"`
	MissingRatio float64 `json:"missing_ratio"`
}

// EstimateRuntime scores each requested model as
// log2(max(rows,2)) * cols * (1+missingRatio) * weight and maps the score
// onto a bucket. Unknown model names degrade to the heaviest catalog
// weight; an estimate is always produced, the coarsest bucket when there
// is nothing to score.
func EstimateRuntime(prof dataset.Profile, models []string) Estimate {
	var ratio float64
	if cells := prof.Rows * prof.Columns; cells > 0 {
		ratio = float64(prof.MissingValues) / float64(cells)
	}
	base := math.Log2(math.Max(float64(prof.Rows), 2)) * float64(prof.Columns) * (1 + ratio)

	est := Estimate{
		Overall:  bucketSlow,
		PerModel: make([]ModelEstimate, 0, len(models)),
		Factors: Factors{
			Rows:         prof.Rows,
			Columns:      prof.Columns,
			MissingRatio: round3(ratio),
		},
	}

	var worst float64
	for _, name := range models {
		weight := model.MaxWeight()
		if spec, err := model.Lookup(name); err == nil {
			weight = spec.Weight
		}
		c := base * weight
		if c > worst {
			worst = c
		}
		est.PerModel = append(est.PerModel, ModelEstimate{
			Model:      name,
			Complexity: round2(c),
			Runtime:    bucket(c),
		})
	}
	if len(models) > 0 {
		est.Overall = bucket(worst)
	}

	return est
}

func bucket(complexity float64) string {
	switch {
	case complexity < mediumThreshold:
		return bucketFast
	case complexity < slowThreshold:
		return bucketMedium
	default:
		return bucketSlow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
