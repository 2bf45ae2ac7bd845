package preprocessing

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/absmach/baseliner/dataset"
	"github.com/absmach/baseliner/experiment"
	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/pkg/profiler"
	"github.com/absmach/baseliner/pkg/table"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSeed fixes the split so repeated runs over the same request are
// reproducible.
const DefaultSeed = 42

const defTestSize = 0.2

type Options struct {
	Target        string
	Features      []string
	Preprocessing experiment.Preprocessing
	TestSize      float64
	Seed          int64
	MissingTokens []string
}

// Splits is the model-ready view of one dataset: imputed, scaled, one-hot
// encoded feature matrices plus label-encoded targets. Labels maps class
// index back to the original target value.
type Splits struct {
	XTrain *mat.Dense
	XTest  *mat.Dense
	YTrain []int
	YTest  []int
	Labels []string
}

// Build fits imputation, scaling, and encoding statistics on a stratified
// training split and materializes both splits. Numeric features impute to
// the training median, categoricals to the most frequent training value;
// one-hot encoding drops unknown test-time categories to all zeros. With
// balancing = smote the training split is rebalanced by oversampling
// minority classes before fitting.
func Build(tbl *table.Table, prof dataset.Profile, opts Options) (*Splits, error) {
	if opts.Target == "" {
		return nil, pkgerrors.ErrEmptyKey
	}
	if len(opts.Features) == 0 {
		return nil, errors.Join(pkgerrors.ErrInvalidData, errors.New("no feature columns"))
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = defTestSize
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	tokens := opts.MissingTokens
	if len(tokens) == 0 {
		tokens = profiler.DefaultMissingTokens()
	}
	missing := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		missing[strings.ToLower(tok)] = true
	}
	isMissing := func(cell string) bool {
		v := strings.TrimSpace(cell)

		return v == "" || missing[strings.ToLower(v)]
	}

	targetIdx, ok := tbl.Index(opts.Target)
	if !ok {
		return nil, errors.Join(pkgerrors.ErrUnknownColumn, fmt.Errorf("target %q", opts.Target))
	}

	var numeric, categorical []string
	featIdx := make(map[string]int, len(opts.Features))
	for _, f := range opts.Features {
		idx, found := tbl.Index(f)
		if !found {
			return nil, errors.Join(pkgerrors.ErrUnknownColumn, fmt.Errorf("feature %q", f))
		}
		featIdx[f] = idx
		if prof.ColumnTypes[f] == dataset.Numeric {
			numeric = append(numeric, f)
		} else {
			categorical = append(categorical, f)
		}
	}

	// Label-encode the target over rows where it is present.
	var kept []int
	classSet := make(map[string]bool)
	for ri, row := range tbl.Rows {
		if isMissing(row[targetIdx]) {
			continue
		}
		kept = append(kept, ri)
		classSet[strings.TrimSpace(row[targetIdx])] = true
	}
	labels := make([]string, 0, len(classSet))
	for label := range classSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	if len(labels) < 2 {
		return nil, errors.Join(pkgerrors.ErrInvalidData, errors.New("target needs at least two classes"))
	}
	classIndex := make(map[string]int, len(labels))
	for i, label := range labels {
		classIndex[label] = i
	}

	// Stratified split with a deterministic shuffle per class.
	rng := rand.New(rand.NewSource(opts.Seed))
	byClass := make([][]int, len(labels))
	for _, ri := range kept {
		c := classIndex[strings.TrimSpace(tbl.Rows[ri][targetIdx])]
		byClass[c] = append(byClass[c], ri)
	}
	var trainRows, testRows []int
	for _, members := range byClass {
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		nTest := int(float64(len(members))*opts.TestSize + 0.5)
		if nTest >= len(members) {
			nTest = len(members) - 1
		}
		testRows = append(testRows, members[:nTest]...)
		trainRows = append(trainRows, members[nTest:]...)
	}
	sort.Ints(trainRows)
	sort.Ints(testRows)
	if len(testRows) == 0 {
		return nil, errors.Join(pkgerrors.ErrInvalidData, errors.New("test split is empty"))
	}

	if opts.Preprocessing.Balancing == experiment.BalancingSMOTE {
		trainRows = oversample(trainRows, tbl, targetIdx, classIndex, rng)
	}

	fitted, err := fit(tbl, opts.Preprocessing.Scaling, trainRows, numeric, categorical, featIdx, isMissing)
	if err != nil {
		return nil, err
	}

	s := &Splits{
		XTrain: fitted.transform(tbl, trainRows),
		XTest:  fitted.transform(tbl, testRows),
		YTrain: encode(tbl, trainRows, targetIdx, classIndex),
		YTest:  encode(tbl, testRows, targetIdx, classIndex),
		Labels: labels,
	}

	return s, nil
}

// ClassWeights returns inverse-frequency weights over the training labels,
// the "balanced" scheme: n / (classes * count).
func ClassWeights(y []int, classes int) []float64 {
	counts := make([]float64, classes)
	for _, c := range y {
		counts[c]++
	}
	w := make([]float64, classes)
	n := float64(len(y))
	k := float64(classes)
	for i, c := range counts {
		if c > 0 {
			w[i] = n / (k * c)
		}
	}

	return w
}

// oversample duplicates random minority-class training rows until every
// class matches the majority count.
func oversample(trainRows []int, tbl *table.Table, targetIdx int, classIndex map[string]int, rng *rand.Rand) []int {
	byClass := make([][]int, len(classIndex))
	for _, ri := range trainRows {
		c := classIndex[strings.TrimSpace(tbl.Rows[ri][targetIdx])]
		byClass[c] = append(byClass[c], ri)
	}
	var most int
	for _, members := range byClass {
		if len(members) > most {
			most = len(members)
		}
	}
	out := append([]int(nil), trainRows...)
	for _, members := range byClass {
		if len(members) == 0 {
			continue
		}
		for extra := most - len(members); extra > 0; extra-- {
			out = append(out, members[rng.Intn(len(members))])
		}
	}
	sort.Ints(out)

	return out
}

func encode(tbl *table.Table, rows []int, targetIdx int, classIndex map[string]int) []int {
	y := make([]int, len(rows))
	for i, ri := range rows {
		y[i] = classIndex[strings.TrimSpace(tbl.Rows[ri][targetIdx])]
	}

	return y
}

// pipeline holds the statistics fitted on the training split.
type pipeline struct {
	numeric     []string
	categorical []string
	featIdx     map[string]int
	isMissing   func(string) bool
	scaling     experiment.Scaling

	medians map[string]float64
	shift   map[string]float64
	scale   map[string]float64
	modes   map[string]string
	cats    map[string][]string
	width   int
}

func fit(tbl *table.Table, scaling experiment.Scaling, trainRows []int, numeric, categorical []string, featIdx map[string]int, isMissing func(string) bool) (*pipeline, error) {
	p := &pipeline{
		numeric:     numeric,
		categorical: categorical,
		featIdx:     featIdx,
		isMissing:   isMissing,
		scaling:     scaling,
		medians:     make(map[string]float64, len(numeric)),
		shift:       make(map[string]float64, len(numeric)),
		scale:       make(map[string]float64, len(numeric)),
		modes:       make(map[string]string, len(categorical)),
		cats:        make(map[string][]string, len(categorical)),
	}

	for _, f := range numeric {
		idx := featIdx[f]
		var vals []float64
		for _, ri := range trainRows {
			if v, ok := parseCell(tbl.Rows[ri][idx], isMissing); ok {
				vals = append(vals, v)
			}
		}
		var median float64
		if len(vals) > 0 {
			median, _ = stats.Median(vals)
		}
		p.medians[f] = median

		imputed := make([]float64, len(trainRows))
		for i, ri := range trainRows {
			v, ok := parseCell(tbl.Rows[ri][idx], isMissing)
			if !ok {
				v = median
			}
			imputed[i] = v
		}
		switch scaling {
		case experiment.ScalingStandard:
			mean, _ := stats.Mean(imputed)
			std, err := stats.StandardDeviationSample(imputed)
			if err != nil || std == 0 {
				std = 1
			}
			p.shift[f] = mean
			p.scale[f] = std
		case experiment.ScalingMinMax:
			lo, _ := stats.Min(imputed)
			hi, _ := stats.Max(imputed)
			span := hi - lo
			if span == 0 {
				span = 1
			}
			p.shift[f] = lo
			p.scale[f] = span
		default:
			p.shift[f] = 0
			p.scale[f] = 1
		}
	}

	for _, f := range categorical {
		idx := featIdx[f]
		counts := make(map[string]int)
		for _, ri := range trainRows {
			cell := tbl.Rows[ri][idx]
			if isMissing(cell) {
				continue
			}
			counts[strings.TrimSpace(cell)]++
		}
		mode := ""
		for v, n := range counts {
			if n > counts[mode] || (n == counts[mode] && (mode == "" || v < mode)) {
				mode = v
			}
		}
		p.modes[f] = mode

		cats := make([]string, 0, len(counts))
		for v := range counts {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		p.cats[f] = cats
	}

	p.width = len(numeric)
	for _, f := range categorical {
		p.width += len(p.cats[f])
	}
	if p.width == 0 {
		return nil, errors.Join(pkgerrors.ErrInvalidData, errors.New("no usable feature values"))
	}

	return p, nil
}

func (p *pipeline) transform(tbl *table.Table, rows []int) *mat.Dense {
	x := mat.NewDense(len(rows), p.width, nil)
	for i, ri := range rows {
		col := 0
		for _, f := range p.numeric {
			v, ok := parseCell(tbl.Rows[ri][p.featIdx[f]], p.isMissing)
			if !ok {
				v = p.medians[f]
			}
			x.Set(i, col, (v-p.shift[f])/p.scale[f])
			col++
		}
		for _, f := range p.categorical {
			cell := tbl.Rows[ri][p.featIdx[f]]
			v := p.modes[f]
			if !p.isMissing(cell) {
				v = strings.TrimSpace(cell)
			}
			for _, cat := range p.cats[f] {
				if v == cat {
					x.Set(i, col, 1)
				}
				col++
			}
		}
	}

	return x
}

func parseCell(cell string, isMissing func(string) bool) (float64, bool) {
	if isMissing(cell) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
