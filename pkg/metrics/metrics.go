package metrics

// Report carries the headline classification scores of one evaluation.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluate scores predictions against the true class indices. Binary
// targets report the positive-class (index 1) scores; multiclass reports
// support-weighted averages. Zero denominators score zero instead of
// failing.
func Evaluate(yTrue, yPred []int, classes int) Report {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) || classes < 2 {
		return Report{}
	}

	tp := make([]float64, classes)
	fp := make([]float64, classes)
	fn := make([]float64, classes)
	support := make([]float64, classes)
	var correct float64
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= classes || p < 0 || p >= classes {
			continue
		}
		support[t]++
		if t == p {
			correct++
			tp[t]++
		} else {
			fp[p]++
			fn[t]++
		}
	}
	n := float64(len(yTrue))

	r := Report{Accuracy: correct / n}
	if classes == 2 {
		r.Precision = ratio(tp[1], tp[1]+fp[1])
		r.Recall = ratio(tp[1], tp[1]+fn[1])
		r.F1 = f1(r.Precision, r.Recall)

		return r
	}

	for c := 0; c < classes; c++ {
		w := support[c] / n
		p := ratio(tp[c], tp[c]+fp[c])
		rec := ratio(tp[c], tp[c]+fn[c])
		r.Precision += w * p
		r.Recall += w * rec
		r.F1 += w * f1(p, rec)
	}

	return r
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}

	return num / den
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}

	return 2 * precision * recall / (precision + recall)
}
